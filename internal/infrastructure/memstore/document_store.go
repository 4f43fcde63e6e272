// Package memstore implementa repository.DocumentStore en memoria con transacciones
// optimistas: cada transacción registra la versión de lo que lee y al confirmar valida
// que nada haya cambiado; si hubo conflicto re-ejecuta el cuerpo contra datos frescos.
package memstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

var _ repository.DocumentStore = (*Store)(nil)

// DefaultMaxAttempts reintentos por transacción antes de abortar con domain.ErrTxAborted.
const DefaultMaxAttempts = 100

var errReadAfterWrite = errors.New("memstore: lectura después de escritura en la transacción")

type entry struct {
	data    []byte
	version uint64
}

// Store almacén en memoria seguro para uso concurrente.
type Store struct {
	mu          sync.Mutex
	docs        map[string]entry
	clock       uint64
	maxAttempts int
}

// Option configura el Store.
type Option func(*Store)

// WithMaxAttempts cambia el número máximo de intentos por transacción.
func WithMaxAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// New crea un almacén vacío.
func New(opts ...Option) *Store {
	s := &Store{docs: make(map[string]entry), maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get implementa repository.DocumentReader.
func (s *Store) Get(ctx context.Context, path string, dst any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	e, ok := s.docs[path]
	s.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	return json.Unmarshal(e.data, dst)
}

// Set implementa repository.DocumentWriter.
func (s *Store) Set(ctx context.Context, path string, data any) error {
	return s.applyNow(ctx, pendingOp{kind: repository.WriteSet, path: path, data: data})
}

// Merge implementa repository.DocumentWriter.
func (s *Store) Merge(ctx context.Context, path string, data any) error {
	return s.applyNow(ctx, pendingOp{kind: repository.WriteMerge, path: path, data: data})
}

// Update implementa repository.DocumentWriter.
func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	return s.applyNow(ctx, pendingOp{kind: repository.WriteUpdate, path: path, data: fields})
}

// Create implementa repository.DocumentWriter.
func (s *Store) Create(ctx context.Context, path string, data any) error {
	return s.applyNow(ctx, pendingOp{kind: opCreate, path: path, data: data})
}

// Delete implementa repository.DocumentWriter.
func (s *Store) Delete(ctx context.Context, path string) error {
	return s.applyNow(ctx, pendingOp{kind: repository.WriteDelete, path: path})
}

// CommitBatch aplica todas las operaciones o ninguna.
func (s *Store) CommitBatch(ctx context.Context, ops []repository.WriteOp) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pending := make([]pendingOp, 0, len(ops))
	for _, op := range ops {
		pending = append(pending, pendingOp{kind: op.Kind, path: op.Path, data: op.Data})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(pending)
}

// List devuelve los documentos hijos directos de collection.
func (s *Store) List(ctx context.Context, collection string, limit int) ([]repository.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0)
	for p := range s.docs {
		if repository.ParentCollection(p) == collection {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	if limit > 0 && len(paths) > limit {
		paths = paths[:limit]
	}
	out := make([]repository.Document, 0, len(paths))
	for _, p := range paths {
		data := make([]byte, len(s.docs[p].data))
		copy(data, s.docs[p].data)
		out = append(out, repository.Document{Path: p, Data: data})
	}
	return out, nil
}

// RunTransaction ejecuta fn con control optimista; re-ejecuta ante conflicto de versión.
func (s *Store) RunTransaction(ctx context.Context, fn repository.TxFunc) error {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		tx := &memTx{store: s, reads: make(map[string]uint64)}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		committed, err := s.tryCommit(tx)
		if err != nil {
			return err
		}
		if committed {
			return nil
		}
		runtime.Gosched()
	}
	return fmt.Errorf("%w: %d intentos", domain.ErrTxAborted, s.maxAttempts)
}

func (s *Store) tryCommit(tx *memTx) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path, version := range tx.reads {
		if s.docs[path].version != version {
			return false, nil
		}
	}
	if err := s.commitLocked(tx.writes); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) applyNow(ctx context.Context, op pendingOp) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked([]pendingOp{op})
}

// commitLocked calcula el resultado de todas las operaciones sobre una copia y sólo
// instala los cambios si ninguna falla. Requiere s.mu tomado.
func (s *Store) commitLocked(ops []pendingOp) error {
	staged := make(map[string]*[]byte, len(ops))
	current := func(path string) ([]byte, bool) {
		if v, ok := staged[path]; ok {
			if v == nil {
				return nil, false
			}
			return *v, true
		}
		e, ok := s.docs[path]
		return e.data, ok
	}
	for _, op := range ops {
		if !repository.ValidDocumentPath(op.path) {
			return fmt.Errorf("%w: ruta %q", domain.ErrInvalidInput, op.path)
		}
		existing, exists := current(op.path)
		next, err := op.apply(existing, exists)
		if err != nil {
			return err
		}
		staged[op.path] = next
	}
	s.clock++
	for path, v := range staged {
		if v == nil {
			delete(s.docs, path)
			continue
		}
		s.docs[path] = entry{data: *v, version: s.clock}
	}
	return nil
}

type memTx struct {
	store  *Store
	reads  map[string]uint64
	writes []pendingOp
}

func (t *memTx) Get(ctx context.Context, path string, dst any) error {
	if len(t.writes) > 0 {
		return errReadAfterWrite
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.store.mu.Lock()
	e, ok := t.store.docs[path]
	t.store.mu.Unlock()
	// versión 0 = ausente; la validación detecta también creaciones concurrentes.
	t.reads[path] = e.version
	if !ok {
		return domain.ErrNotFound
	}
	return json.Unmarshal(e.data, dst)
}

func (t *memTx) Set(_ context.Context, path string, data any) error {
	return t.stage(pendingOp{kind: repository.WriteSet, path: path, data: data})
}

func (t *memTx) Merge(_ context.Context, path string, data any) error {
	return t.stage(pendingOp{kind: repository.WriteMerge, path: path, data: data})
}

func (t *memTx) Update(_ context.Context, path string, fields map[string]any) error {
	return t.stage(pendingOp{kind: repository.WriteUpdate, path: path, data: fields})
}

func (t *memTx) Create(_ context.Context, path string, data any) error {
	return t.stage(pendingOp{kind: opCreate, path: path, data: data})
}

func (t *memTx) Delete(_ context.Context, path string) error {
	return t.stage(pendingOp{kind: repository.WriteDelete, path: path})
}

// stage serializa en el momento de la llamada para que mutaciones posteriores del
// caller no alteren lo que se confirmará.
func (t *memTx) stage(op pendingOp) error {
	if op.kind != repository.WriteDelete {
		raw, err := encodeObject(op.data)
		if err != nil {
			return err
		}
		op.data = raw
	}
	t.writes = append(t.writes, op)
	return nil
}

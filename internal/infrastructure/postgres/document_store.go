package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

var _ repository.DocumentStore = (*DocumentStore)(nil)

// DefaultMaxAttempts intentos de una transacción antes de abortar. Con bloqueo de fila
// sólo se reintenta ante deadlock o fallo de serialización.
const DefaultMaxAttempts = 20

// retryBackoff espera base entre intentos; crece lineal con el número de intento.
const retryBackoff = 5 * time.Millisecond

// Querier lo implementan tanto *pgxpool.Pool como pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DocumentStore almacén de documentos JSONB sobre PostgreSQL.
type DocumentStore struct {
	pool        *pgxpool.Pool
	ops         docOps
	maxAttempts int
}

// NewDocumentStore construye el adaptador sobre el pool.
func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{pool: pool, ops: docOps{q: pool}, maxAttempts: DefaultMaxAttempts}
}

func (s *DocumentStore) Get(ctx context.Context, path string, dst any) error {
	return s.ops.Get(ctx, path, dst)
}

func (s *DocumentStore) Set(ctx context.Context, path string, data any) error {
	return s.ops.Set(ctx, path, data)
}

func (s *DocumentStore) Merge(ctx context.Context, path string, data any) error {
	return s.ops.Merge(ctx, path, data)
}

func (s *DocumentStore) Update(ctx context.Context, path string, fields map[string]any) error {
	return s.ops.Update(ctx, path, fields)
}

func (s *DocumentStore) Create(ctx context.Context, path string, data any) error {
	return s.ops.Create(ctx, path, data)
}

func (s *DocumentStore) Delete(ctx context.Context, path string) error {
	return s.ops.Delete(ctx, path)
}

// List devuelve los documentos directos de collection; limit <= 0 sin límite.
func (s *DocumentStore) List(ctx context.Context, collection string, limit int) ([]repository.Document, error) {
	query := `
		SELECT path, data FROM documents
		WHERE collection = $1
		ORDER BY path
		LIMIT NULLIF($2::int, 0)`
	rows, err := s.pool.Query(ctx, query, collection, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	var out []repository.Document
	for rows.Next() {
		var d repository.Document
		var data []byte
		if err := rows.Scan(&d.Path, &data); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.Data = data
		out = append(out, d)
	}
	return out, rows.Err()
}

// RunTransaction ejecuta fn en una transacción READ COMMITTED donde cada lectura bloquea
// la fila (SELECT FOR UPDATE): los competidores esperan en cola en lugar de abortar y
// leen el valor ya confirmado. Ante deadlock o fallo de serialización se re-ejecuta fn.
func (s *DocumentStore) RunTransaction(ctx context.Context, fn repository.TxFunc) error {
	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}
		err := s.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %v", domain.ErrTxAborted, lastErr)
}

func (s *DocumentStore) runOnce(ctx context.Context, fn repository.TxFunc) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, docOps{q: tx, lock: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// CommitBatch aplica ops en una sola transacción.
func (s *DocumentStore) CommitBatch(ctx context.Context, ops []repository.WriteOp) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	w := docOps{q: tx}
	for _, op := range ops {
		switch op.Kind {
		case repository.WriteSet:
			err = w.Set(ctx, op.Path, op.Data)
		case repository.WriteMerge:
			err = w.Merge(ctx, op.Path, op.Data)
		case repository.WriteUpdate:
			err = w.Update(ctx, op.Path, op.Data)
		case repository.WriteDelete:
			err = w.Delete(ctx, op.Path)
		default:
			err = fmt.Errorf("%w: operación %q", domain.ErrInvalidInput, op.Kind)
		}
		if err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// docOps lecturas y escrituras sobre un Querier (pool o tx).
type docOps struct {
	q    Querier
	lock bool
}

func (o docOps) Get(ctx context.Context, path string, dst any) error {
	query := `SELECT data FROM documents WHERE path = $1`
	if o.lock {
		// el lock consultivo cubre también documentos que aún no existen
		if _, err := o.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, path); err != nil {
			return fmt.Errorf("lock document: %w", err)
		}
		query += ` FOR UPDATE`
	}
	var data []byte
	if err := o.q.QueryRow(ctx, query, path).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get document: %w", err)
	}
	return json.Unmarshal(data, dst)
}

func (o docOps) Set(ctx context.Context, path string, data any) error {
	return o.upsert(ctx, path, data, `data = EXCLUDED.data`)
}

func (o docOps) Merge(ctx context.Context, path string, data any) error {
	return o.upsert(ctx, path, data, `data = documents.data || EXCLUDED.data`)
}

func (o docOps) upsert(ctx context.Context, path string, data any, onConflict string) error {
	raw, err := encodeDocument(path, data)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO documents (path, collection, data, version, updated_at)
		VALUES ($1, $2, $3::jsonb, 1, now())
		ON CONFLICT (path) DO UPDATE SET ` + onConflict + `,
			version = documents.version + 1, updated_at = now()`
	if _, err := o.q.Exec(ctx, query, path, repository.ParentCollection(path), string(raw)); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (o docOps) Update(ctx context.Context, path string, fields map[string]any) error {
	raw, err := encodeDocument(path, fields)
	if err != nil {
		return err
	}
	query := `
		UPDATE documents SET data = data || $2::jsonb, version = version + 1, updated_at = now()
		WHERE path = $1`
	tag, err := o.q.Exec(ctx, query, path, string(raw))
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	return nil
}

func (o docOps) Create(ctx context.Context, path string, data any) error {
	raw, err := encodeDocument(path, data)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO documents (path, collection, data, version, updated_at)
		VALUES ($1, $2, $3::jsonb, 1, now())
		ON CONFLICT (path) DO NOTHING`
	tag, err := o.q.Exec(ctx, query, path, repository.ParentCollection(path), string(raw))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, path)
		}
		return fmt.Errorf("create document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, path)
	}
	return nil
}

func (o docOps) Delete(ctx context.Context, path string) error {
	if _, err := o.q.Exec(ctx, `DELETE FROM documents WHERE path = $1`, path); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func encodeDocument(path string, data any) ([]byte, error) {
	if !repository.ValidDocumentPath(path) {
		return nil, fmt.Errorf("%w: ruta %q", domain.ErrInvalidInput, path)
	}
	if data == nil {
		return []byte("{}"), nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if len(raw) == 0 || raw[0] != '{' {
		return nil, fmt.Errorf("%w: el documento debe ser un objeto JSON", domain.ErrInvalidInput)
	}
	return raw, nil
}

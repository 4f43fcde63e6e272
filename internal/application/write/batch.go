// Package write escrituras genéricas de clientes sobre colecciones no protegidas.
package write

import (
	"context"
	"fmt"

	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

// MaxBatchChunk operaciones por commit; límite de tamaño de lote del almacén.
const MaxBatchChunk = 450

// protected colecciones cuyo único escritor es el motor.
var protected = map[string]struct{}{
	entity.CollectionInventory:     {},
	entity.CollectionOrders:        {},
	entity.CollectionAuditLog:      {},
	entity.CollectionWebhookEvents: {},
	entity.CollectionRateLimits:    {},
	entity.CollectionCommands:      {},
	entity.CollectionNotifications: {},
}

// IsProtected indica si path pertenece a una colección reservada al motor.
func IsProtected(path string) bool {
	_, ok := protected[repository.RootCollection(path)]
	return ok
}

// Op operación de lote tal como llega del cliente.
type Op struct {
	Op   string         `json:"op"`
	Path string         `json:"path"`
	Data map[string]any `json:"data,omitempty"`
}

// BatchWriter aplica lotes en trozos de MaxBatchChunk.
type BatchWriter struct {
	store repository.DocumentStore
	chunk int
}

// NewBatchWriter construye el escritor.
func NewBatchWriter(store repository.DocumentStore) *BatchWriter {
	return &BatchWriter{store: store, chunk: MaxBatchChunk}
}

// Apply valida todas las operaciones antes de escribir y confirma cada trozo por
// separado. Si un trozo falla, los anteriores ya quedaron aplicados: applied puede ser
// menor que len(ops).
func (w *BatchWriter) Apply(ctx context.Context, ops []Op, merge bool) (int, error) {
	if len(ops) == 0 {
		return 0, nil
	}
	writes := make([]repository.WriteOp, 0, len(ops))
	for i, op := range ops {
		wo, err := toWriteOp(op, merge)
		if err != nil {
			return 0, fmt.Errorf("op %d: %w", i, err)
		}
		writes = append(writes, wo)
	}

	applied := 0
	for start := 0; start < len(writes); start += w.chunk {
		end := start + w.chunk
		if end > len(writes) {
			end = len(writes)
		}
		if err := w.store.CommitBatch(ctx, writes[start:end]); err != nil {
			return applied, fmt.Errorf("commit ops %d-%d: %w", start, end-1, err)
		}
		applied += end - start
	}
	return applied, nil
}

func toWriteOp(op Op, merge bool) (repository.WriteOp, error) {
	if !repository.ValidDocumentPath(op.Path) {
		return repository.WriteOp{}, fmt.Errorf("%w: ruta %q", domain.ErrInvalidInput, op.Path)
	}
	if IsProtected(op.Path) {
		return repository.WriteOp{}, fmt.Errorf("%w: colección protegida %q", domain.ErrForbidden, repository.RootCollection(op.Path))
	}
	var kind repository.WriteKind
	switch op.Op {
	case "", "set":
		kind = repository.WriteSet
		if merge {
			kind = repository.WriteMerge
		}
	case "update":
		kind = repository.WriteUpdate
	case "delete":
		kind = repository.WriteDelete
	default:
		return repository.WriteOp{}, fmt.Errorf("%w: operación %q", domain.ErrInvalidInput, op.Op)
	}
	data := op.Data
	if data == nil && kind != repository.WriteDelete {
		data = map[string]any{}
	}
	return repository.WriteOp{Kind: kind, Path: op.Path, Data: data}, nil
}

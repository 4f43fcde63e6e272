package repository

import (
	"context"
	"encoding/json"
)

// DocumentReader lee documentos JSON por ruta ("coleccion/id[/subcoleccion/id]").
type DocumentReader interface {
	// Get decodifica el documento en dst. Devuelve domain.ErrNotFound si no existe.
	Get(ctx context.Context, path string, dst any) error
}

// DocumentWriter escrituras sobre documentos. data debe serializar a un objeto JSON.
type DocumentWriter interface {
	// Set reemplaza el documento completo (lo crea si no existe).
	Set(ctx context.Context, path string, data any) error
	// Merge fusiona los campos de primer nivel; crea el documento si no existe.
	Merge(ctx context.Context, path string, data any) error
	// Update fusiona campos sobre un documento existente; domain.ErrNotFound si no existe.
	Update(ctx context.Context, path string, fields map[string]any) error
	// Create inserta sólo si no existe; domain.ErrAlreadyExists en caso contrario.
	Create(ctx context.Context, path string, data any) error
	// Delete elimina el documento; no falla si no existe.
	Delete(ctx context.Context, path string) error
}

// Tx operaciones atadas a una transacción. El cuerpo puede re-ejecutarse ante conflicto,
// por lo que no debe tener efectos externos irrevocables.
type Tx interface {
	DocumentReader
	DocumentWriter
}

// TxFunc cuerpo de una transacción.
type TxFunc func(ctx context.Context, tx Tx) error

// Document documento crudo devuelto por List.
type Document struct {
	Path string
	Data json.RawMessage
}

// Decode decodifica Data en dst.
func (d Document) Decode(dst any) error {
	return json.Unmarshal(d.Data, dst)
}

// WriteKind verbo de una operación de lote.
type WriteKind string

const (
	WriteSet    WriteKind = "set"
	WriteMerge  WriteKind = "merge"
	WriteUpdate WriteKind = "update"
	WriteDelete WriteKind = "delete"
)

// WriteOp operación de un lote atómico.
type WriteOp struct {
	Kind WriteKind
	Path string
	Data map[string]any
}

// DocumentStore almacén transaccional de documentos (puerto). Las transacciones son
// serializables y el almacén reintenta internamente el cuerpo ante conflictos.
type DocumentStore interface {
	DocumentReader
	DocumentWriter
	RunTransaction(ctx context.Context, fn TxFunc) error
	// CommitBatch aplica ops de forma atómica (todas o ninguna).
	CommitBatch(ctx context.Context, ops []WriteOp) error
	// List devuelve los documentos directos de una colección ordenados por ruta.
	List(ctx context.Context, collection string, limit int) ([]Document, error)
}

package memstore

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

// opCreate verbo interno; no forma parte de los lotes públicos.
const opCreate repository.WriteKind = "create"

type pendingOp struct {
	kind repository.WriteKind
	path string
	data any
}

// apply devuelve el nuevo contenido del documento (nil = eliminado).
func (op pendingOp) apply(existing []byte, exists bool) (*[]byte, error) {
	if op.kind == repository.WriteDelete {
		return nil, nil
	}
	raw, err := encodeObject(op.data)
	if err != nil {
		return nil, err
	}
	var out []byte
	switch op.kind {
	case repository.WriteSet:
		out = raw
	case opCreate:
		if exists {
			return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyExists, op.path)
		}
		out = raw
	case repository.WriteMerge:
		if !exists {
			out = raw
			break
		}
		if out, err = mergeObjects(existing, raw); err != nil {
			return nil, err
		}
	case repository.WriteUpdate:
		if !exists {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, op.path)
		}
		if out, err = mergeObjects(existing, raw); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: operación %q", domain.ErrInvalidInput, op.kind)
	}
	return &out, nil
}

// encodeObject serializa data y exige que el resultado sea un objeto JSON.
func encodeObject(data any) (json.RawMessage, error) {
	if data == nil {
		return json.RawMessage("{}"), nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: el documento debe ser un objeto JSON", domain.ErrInvalidInput)
	}
	return trimmed, nil
}

func mergeObjects(base, patch []byte) ([]byte, error) {
	var dst map[string]json.RawMessage
	if err := json.Unmarshal(base, &dst); err != nil {
		return nil, err
	}
	var src map[string]json.RawMessage
	if err := json.Unmarshal(patch, &src); err != nil {
		return nil, err
	}
	if dst == nil {
		dst = make(map[string]json.RawMessage, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return json.Marshal(dst)
}

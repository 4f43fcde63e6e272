package write

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

// Valores por defecto de la escritura limitada.
const (
	DefaultAction    = "generic"
	DefaultLimit     = 20
	DefaultWindowSec = 60
)

// RateEnforcer lo implementa ratelimit.Limiter.
type RateEnforcer interface {
	Enforce(ctx context.Context, principal, action string, limit int, window time.Duration) error
}

// RateLimitedInput petición de escritura limitada.
type RateLimitedInput struct {
	Action    string         `json:"action"`
	Limit     int            `json:"limit,omitempty"`
	WindowSec int            `json:"windowSec,omitempty"`
	WritePath string         `json:"writePath,omitempty"`
	WriteData map[string]any `json:"writeData,omitempty"`
}

// RateLimitedWriter consume un intento del limitador y, si se admite, fusiona
// opcionalmente WriteData en WritePath.
type RateLimitedWriter struct {
	limiter RateEnforcer
	store   repository.DocumentWriter
}

// NewRateLimitedWriter construye el escritor.
func NewRateLimitedWriter(limiter RateEnforcer, store repository.DocumentWriter) *RateLimitedWriter {
	return &RateLimitedWriter{limiter: limiter, store: store}
}

// Write devuelve *domain.RateLimitError si el principal agotó su ventana. La ruta se
// valida antes de consumir el intento.
func (w *RateLimitedWriter) Write(ctx context.Context, principal string, in RateLimitedInput) (bool, error) {
	if in.Action == "" {
		in.Action = DefaultAction
	}
	if in.Limit == 0 {
		in.Limit = DefaultLimit
	}
	if in.WindowSec == 0 {
		in.WindowSec = DefaultWindowSec
	}
	if in.WritePath != "" {
		if !repository.ValidDocumentPath(in.WritePath) {
			return false, fmt.Errorf("%w: ruta %q", domain.ErrInvalidInput, in.WritePath)
		}
		if IsProtected(in.WritePath) {
			return false, fmt.Errorf("%w: colección protegida", domain.ErrForbidden)
		}
	}

	if err := w.limiter.Enforce(ctx, principal, in.Action, in.Limit, time.Duration(in.WindowSec)*time.Second); err != nil {
		return false, err
	}
	if in.WritePath == "" {
		return false, nil
	}
	data := in.WriteData
	if data == nil {
		data = map[string]any{}
	}
	if err := w.store.Merge(ctx, in.WritePath, data); err != nil {
		return false, fmt.Errorf("rate limited write: %w", err)
	}
	return true, nil
}

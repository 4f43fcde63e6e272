// Package webhook aplica eventos de pago externos exactamente una vez.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

// Guard token write-once por id de evento. Debe consultarse antes de cualquier
// mutación de inventario.
type Guard struct {
	store repository.DocumentWriter
	now   func() time.Time
}

// NewGuard construye el guard.
func NewGuard(store repository.DocumentWriter) *Guard {
	return &Guard{store: store, now: time.Now}
}

// AdmitOnce crea webhookEvents/{eventId} si no existe. false = ya visto (duplicado).
func (g *Guard) AdmitOnce(ctx context.Context, ev entity.WebhookEvent) (bool, error) {
	if ev.EventID == "" {
		return false, fmt.Errorf("%w: eventId vacío", domain.ErrInvalidInput)
	}
	ev.Processed = false
	ev.ProcessedAt = nil
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = g.now().UTC()
	}
	err := g.store.Create(ctx, entity.WebhookEventPath(ev.EventID), ev)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrAlreadyExists):
		return false, nil
	default:
		return false, fmt.Errorf("admit event %s: %w", ev.EventID, err)
	}
}

// MarkProcessed cierra el token: processed=true con la fecha de cierre.
func (g *Guard) MarkProcessed(ctx context.Context, eventID string) error {
	err := g.store.Update(ctx, entity.WebhookEventPath(eventID), map[string]any{
		"processed":   true,
		"processedAt": g.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("mark event %s processed: %w", eventID, err)
	}
	return nil
}

// Forget borra un token cuyo procesamiento falló antes de mutar nada, para que la
// reentrega del proveedor pueda reintentarlo.
func (g *Guard) Forget(ctx context.Context, eventID string) error {
	return g.store.Delete(ctx, entity.WebhookEventPath(eventID))
}

package ports

import (
	"context"

	"github.com/jhoicas/reservas-api/internal/domain/entity"
)

// NotificationSink entrega una notificación a un usuario (documento, Kafka, ...).
type NotificationSink interface {
	Send(ctx context.Context, userID string, n entity.Notification) error
}

// Notifier despacho best-effort usado por los casos de uso; nunca devuelve error.
type Notifier interface {
	Notify(ctx context.Context, userID string, n entity.Notification)
}

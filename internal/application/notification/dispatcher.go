// Package notification despacho best-effort de notificaciones al cliente.
package notification

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/reservas-api/internal/application/ports"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
)

var _ ports.Notifier = (*Dispatcher)(nil)

// FailureObserver recibe las fallas de entrega que el dispatcher no propaga.
type FailureObserver interface {
	NotificationFailed(userID string, n entity.Notification, err error)
}

// Dispatcher entrega la notificación al sink y nunca falla hacia el caller: una
// notificación perdida no debe deshacer una finalización ya confirmada.
type Dispatcher struct {
	sink     ports.NotificationSink
	observer FailureObserver
	now      func() time.Time
}

// NewDispatcher construye el dispatcher. observer puede ser nil.
func NewDispatcher(sink ports.NotificationSink, observer FailureObserver) *Dispatcher {
	return &Dispatcher{sink: sink, observer: observer, now: time.Now}
}

// Notify envía n a userID (o al destinatario system si está vacío).
func (d *Dispatcher) Notify(ctx context.Context, userID string, n entity.Notification) {
	if userID == "" {
		userID = entity.SystemRecipient
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = d.now().UTC()
	}
	if err := d.sink.Send(ctx, userID, n); err != nil && d.observer != nil {
		d.observer.NotificationFailed(userID, n, err)
	}
}

// LogObserver registra la falla en el log y lleva la cuenta.
type LogObserver struct {
	log      zerolog.Logger
	failures atomic.Int64
}

// NewLogObserver construye el observador.
func NewLogObserver(log zerolog.Logger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) NotificationFailed(userID string, n entity.Notification, err error) {
	o.failures.Add(1)
	o.log.Warn().Err(err).
		Str("user_id", userID).
		Str("type", n.Type).
		Str("order_id", n.OrderID).
		Msg("notificación no entregada")
}

// Failures total de fallas observadas.
func (o *LogObserver) Failures() int64 {
	return o.failures.Load()
}

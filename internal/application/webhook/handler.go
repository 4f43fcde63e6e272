package webhook

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/reservas-api/internal/application/audit"
	"github.com/jhoicas/reservas-api/internal/application/inventory"
	"github.com/jhoicas/reservas-api/internal/application/ports"
	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	applog "github.com/jhoicas/reservas-api/pkg/logger"
)

// Outcome respuesta al proveedor.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

// Finalizer lo implementa el ledger.
type Finalizer interface {
	Finalize(ctx context.Context, orderID string) (inventory.Result, error)
}

// PaymentEventHandler aplica un evento de pago confirmado: guard, finalize, auditoría y
// notificación, en ese orden.
type PaymentEventHandler struct {
	guard    *Guard
	ledger   Finalizer
	audit    *audit.Log
	notifier ports.Notifier
	log      zerolog.Logger
}

// NewPaymentEventHandler construye el handler.
func NewPaymentEventHandler(guard *Guard, ledger Finalizer, auditLog *audit.Log, notifier ports.Notifier, log zerolog.Logger) *PaymentEventHandler {
	return &PaymentEventHandler{
		guard:    guard,
		ledger:   ledger,
		audit:    auditLog,
		notifier: notifier,
		log:      log.With().Str("component", "webhook").Logger(),
	}
}

// Handle procesa el sobre. Sin orderId el sobre es inválido aunque el tipo se ignore.
// Un error devuelto implica que el evento puede reentregarse:
// el token se libera y no se confirmó ninguna mutación.
func (h *PaymentEventHandler) Handle(ctx context.Context, env Envelope) (Outcome, error) {
	orderID := env.OrderID()
	if orderID == "" {
		return "", fmt.Errorf("%w: orderId ausente en metadata", domain.ErrInvalidInput)
	}
	if !env.Type.TriggersFinalize() {
		return OutcomeIgnored, nil
	}
	eventID := env.EventID()
	logger := applog.WithTrace(ctx, h.log).With().Str("event_id", eventID).Str("order_id", orderID).Logger()

	admitted, err := h.guard.AdmitOnce(ctx, entity.WebhookEvent{EventID: eventID, Type: string(env.Type), OrderID: orderID})
	if err != nil {
		return "", err
	}
	if !admitted {
		logger.Info().Msg("evento duplicado")
		return OutcomeDuplicate, nil
	}

	res, err := h.ledger.Finalize(ctx, orderID)
	if err != nil {
		if fErr := h.guard.Forget(ctx, eventID); fErr != nil {
			logger.Error().Err(fErr).Msg("no se pudo liberar el token del evento")
		}
		return "", fmt.Errorf("finalize %s: %w", orderID, err)
	}

	if _, err := h.audit.Record(ctx, entity.AuditLogEntry{
		Kind:    entity.AuditKindWebhook,
		Event:   string(env.Type),
		OrderID: orderID,
		EventID: eventID,
		Result:  audit.Result(res.Success, res.Message),
	}); err != nil {
		logger.Error().Err(err).Msg("no se pudo auditar el evento")
	}
	if res.Success {
		h.notifier.Notify(ctx, entity.SystemRecipient, entity.Notification{
			Type:      entity.NotificationPaymentSucceeded,
			OrderID:   orderID,
			PaymentID: env.Data.Object.ID,
		})
	} else {
		logger.Warn().Str("reason", res.Message).Msg("finalize rechazado")
	}
	if err := h.guard.MarkProcessed(ctx, eventID); err != nil {
		logger.Error().Err(err).Msg("no se pudo cerrar el token del evento")
	}
	return OutcomeOK, nil
}

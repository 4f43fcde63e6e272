// Package command buzón de comandos de clientes consumido por el motor.
//
// Un comando procesado con éxito se borra. Si falla queda en su lugar anotado con
// {processedAt, error} para inspección manual: no hay reintento automático ni cola de
// mensajes muertos.
package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/reservas-api/internal/application/audit"
	"github.com/jhoicas/reservas-api/internal/application/inventory"
	"github.com/jhoicas/reservas-api/internal/application/ports"
	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/order"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
	applog "github.com/jhoicas/reservas-api/pkg/logger"
)

// Ledger operaciones del ledger que dispara el buzón.
type Ledger interface {
	Reserve(ctx context.Context, orderID string) (inventory.Result, error)
	Finalize(ctx context.Context, orderID string) (inventory.Result, error)
}

// Processor despacha un comando por tipo.
type Processor struct {
	store    repository.DocumentStore
	ledger   Ledger
	payments ports.PaymentProvider
	audit    *audit.Log
	notifier ports.Notifier
	log      zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewProcessor construye el procesador.
func NewProcessor(
	store repository.DocumentStore,
	ledger Ledger,
	payments ports.PaymentProvider,
	auditLog *audit.Log,
	notifier ports.Notifier,
	log zerolog.Logger,
) *Processor {
	return &Processor{
		store:    store,
		ledger:   ledger,
		payments: payments,
		audit:    auditLog,
		notifier: notifier,
		log:      log.With().Str("component", "command").Logger(),
		tracer:   otel.Tracer("github.com/jhoicas/reservas-api/command"),
		now:      time.Now,
	}
}

// Process carga el comando, lo ejecuta y lo borra o lo anota. Un comando inexistente
// (ya procesado) o ya anotado se omite.
func (p *Processor) Process(ctx context.Context, commandID string) error {
	ctx, span := p.tracer.Start(ctx, "command.Process", trace.WithAttributes(attribute.String("command.id", commandID)))
	defer span.End()

	var cmd entity.Command
	if err := p.store.Get(ctx, entity.CommandPath(commandID), &cmd); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load command %s: %w", commandID, err)
	}
	if cmd.Failed() {
		return nil
	}
	if cmd.CommandID == "" {
		cmd.CommandID = commandID
	}
	span.SetAttributes(attribute.String("command.type", string(cmd.Type)), attribute.String("order.id", cmd.OrderID))
	logger := applog.WithTrace(ctx, p.log).With().Str("command_id", commandID).Str("type", string(cmd.Type)).Str("order_id", cmd.OrderID).Logger()

	if err := p.dispatch(ctx, &cmd, logger); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error().Err(err).Msg("comando fallido, queda anotado")
		if aErr := p.annotate(ctx, commandID, err); aErr != nil {
			return errors.Join(err, aErr)
		}
		return err
	}
	if err := p.store.Delete(ctx, entity.CommandPath(commandID)); err != nil {
		return fmt.Errorf("ack command %s: %w", commandID, err)
	}
	logger.Debug().Msg("comando procesado")
	return nil
}

func (p *Processor) dispatch(ctx context.Context, cmd *entity.Command, logger zerolog.Logger) error {
	switch cmd.Type {
	case entity.CommandReserveInventory:
		return p.reserve(ctx, cmd)
	case entity.CommandFinalizeInventory:
		return p.finalize(ctx, cmd)
	case entity.CommandOrderTransition:
		return p.transition(ctx, cmd)
	default:
		logger.Warn().Msg("tipo de comando no reconocido, se descarta")
		return nil
	}
}

func (p *Processor) reserve(ctx context.Context, cmd *entity.Command) error {
	if cmd.OrderID == "" {
		return fmt.Errorf("%w: orderId vacío", domain.ErrInvalidInput)
	}
	res, err := p.ledger.Reserve(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	_, err = p.audit.Record(ctx, entity.AuditLogEntry{
		Kind:    entity.AuditKindReserve,
		OrderID: cmd.OrderID,
		Result:  audit.Result(res.Success, res.Message),
	})
	return err
}

// finalize cobra fuera de cualquier transacción y sólo finaliza si el cobro se aprobó.
func (p *Processor) finalize(ctx context.Context, cmd *entity.Command) error {
	if cmd.OrderID == "" {
		return fmt.Errorf("%w: orderId vacío", domain.ErrInvalidInput)
	}
	var payload entity.FinalizePayload
	if err := decodePayload(cmd.Payload, &payload); err != nil {
		return err
	}
	var o entity.Order
	if err := p.store.Get(ctx, entity.OrderPath(cmd.OrderID), &o); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewReasonError(domain.ReasonOrderNotFound, cmd.OrderID)
		}
		return err
	}
	// Sin cobro repetido: una orden ya finalizada se reconoce como no-op.
	if o.Status == entity.OrderStatusFinalized {
		_, err := p.audit.Record(ctx, entity.AuditLogEntry{
			Kind:    entity.AuditKindFinalize,
			OrderID: cmd.OrderID,
			Result:  audit.Result(true, inventory.MsgAlreadyFinalized),
		})
		return err
	}
	if order.IsTerminal(o.Status) {
		return domain.NewReasonError(domain.ReasonInvalidTransition, fmt.Sprintf("%s->%s", o.Status, entity.OrderStatusFinalized))
	}
	req := ports.ChargeRequest{
		OrderID:         cmd.OrderID,
		Amount:          o.Amount,
		Currency:        o.Currency,
		Metadata:        payload.Metadata,
		SimulateFailure: payload.SimulateFailure,
	}

	payment := p.payments.Charge(ctx, req)
	if !payment.Success {
		_, err := p.audit.Record(ctx, entity.AuditLogEntry{
			Kind:    entity.AuditKindFinalize,
			OrderID: cmd.OrderID,
			Payment: &payment,
			Result:  audit.Result(false, payment.Message),
		})
		return err
	}

	res, err := p.ledger.Finalize(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if _, err := p.audit.Record(ctx, entity.AuditLogEntry{
		Kind:    entity.AuditKindFinalize,
		OrderID: cmd.OrderID,
		Payment: &payment,
		Result:  audit.Result(res.Success, res.Message),
	}); err != nil {
		return err
	}
	if res.Success {
		p.notifier.Notify(ctx, cmd.UserID, entity.Notification{
			Type:      entity.NotificationOrderFinalized,
			OrderID:   cmd.OrderID,
			PaymentID: payment.ID,
		})
	}
	return nil
}

// transition escritura administrativa directa del estado, sin pasar por el ledger.
func (p *Processor) transition(ctx context.Context, cmd *entity.Command) error {
	if cmd.OrderID == "" {
		return fmt.Errorf("%w: orderId vacío", domain.ErrInvalidInput)
	}
	var payload entity.TransitionPayload
	if err := decodePayload(cmd.Payload, &payload); err != nil {
		return err
	}
	if !payload.Status.Valid() {
		return fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, payload.Status)
	}
	err := p.store.Update(ctx, entity.OrderPath(cmd.OrderID), map[string]any{
		"status":    payload.Status,
		"updatedAt": p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("transition %s: %w", cmd.OrderID, err)
	}
	_, err = p.audit.Record(ctx, entity.AuditLogEntry{
		Kind:    entity.AuditKindTransition,
		OrderID: cmd.OrderID,
		To:      string(payload.Status),
		Result:  audit.Result(true, ""),
	})
	return err
}

func (p *Processor) annotate(ctx context.Context, commandID string, cause error) error {
	return p.store.Merge(ctx, entity.CommandPath(commandID), map[string]any{
		"processedAt": p.now().UTC(),
		"error":       domain.TruncateReason(cause.Error()),
	})
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: payload: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

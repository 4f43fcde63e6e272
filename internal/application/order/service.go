// Package order alta, consulta y cancelación de órdenes por parte de clientes.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/reservas-api/internal/application/audit"
	"github.com/jhoicas/reservas-api/internal/application/command"
	"github.com/jhoicas/reservas-api/internal/application/inventory"
	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

// Canceller lo implementa el ledger.
type Canceller interface {
	Cancel(ctx context.Context, orderID string) (inventory.Result, error)
}

// Submitter lo implementa command.Intake.
type Submitter interface {
	Submit(ctx context.Context, in command.SubmitInput) (string, error)
}

// CreateInput datos de una orden nueva.
type CreateInput struct {
	Items    []entity.OrderItem
	Amount   decimal.Decimal
	Currency string
}

// Service casos de uso de órdenes. El cliente sólo crea y lee; el estado lo mueve el motor.
type Service struct {
	store  repository.DocumentStore
	ledger Canceller
	intake Submitter
	audit  *audit.Log
	log    zerolog.Logger
	now    func() time.Time
}

// NewService construye el servicio.
func NewService(store repository.DocumentStore, ledger Canceller, intake Submitter, auditLog *audit.Log, log zerolog.Logger) *Service {
	return &Service{store: store, ledger: ledger, intake: intake, audit: auditLog, log: log, now: time.Now}
}

// Create persiste la orden en pending y pide su reserva al buzón de comandos.
// Devuelve la orden y el id del comando de reserva.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*entity.Order, string, error) {
	if userID == "" {
		return nil, "", domain.ErrUnauthorized
	}
	for i, it := range in.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return nil, "", fmt.Errorf("%w: item %d requiere productId y quantity > 0", domain.ErrInvalidInput, i)
		}
	}
	if in.Amount.IsNegative() {
		return nil, "", fmt.Errorf("%w: amount negativo", domain.ErrInvalidInput)
	}

	now := s.now().UTC()
	items := in.Items
	if items == nil {
		items = []entity.OrderItem{}
	}
	o := &entity.Order{
		OrderID:   uuid.New().String(),
		UserID:    userID,
		Items:     items,
		Status:    entity.OrderStatusPending,
		Amount:    in.Amount,
		Currency:  in.Currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, entity.OrderPath(o.OrderID), o); err != nil {
		return nil, "", fmt.Errorf("create order: %w", err)
	}
	commandID, err := s.intake.Submit(ctx, command.SubmitInput{
		Type:    entity.CommandReserveInventory,
		OrderID: o.OrderID,
		UserID:  userID,
	})
	if err != nil {
		return o, "", fmt.Errorf("submit reservation: %w", err)
	}
	s.log.Info().Str("order_id", o.OrderID).Str("command_id", commandID).Msg("orden creada")
	return o, commandID, nil
}

// Get devuelve la orden si pertenece al usuario o si quien consulta es admin.
func (s *Service) Get(ctx context.Context, userID, role, orderID string) (*entity.Order, error) {
	if orderID == "" {
		return nil, domain.ErrInvalidInput
	}
	var o entity.Order
	if err := s.store.Get(ctx, entity.OrderPath(orderID), &o); err != nil {
		return nil, err
	}
	if o.UserID != userID && role != entity.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	return &o, nil
}

// Cancel cancela la orden vía ledger y audita el resultado.
func (s *Service) Cancel(ctx context.Context, orderID string) (inventory.Result, error) {
	res, err := s.ledger.Cancel(ctx, orderID)
	if err != nil {
		return res, err
	}
	if _, err := s.audit.Record(ctx, entity.AuditLogEntry{
		Kind:    entity.AuditKindCancel,
		OrderID: orderID,
		Result:  audit.Result(res.Success, res.Message),
	}); err != nil {
		s.log.Error().Err(err).Str("order_id", orderID).Msg("no se pudo auditar la cancelación")
	}
	return res, nil
}

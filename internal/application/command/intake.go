package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

// Enqueuer lo implementa Queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, commandID string) error
}

// SubmitInput comando enviado por un cliente.
type SubmitInput struct {
	Type    entity.CommandType
	OrderID string
	Payload json.RawMessage
	UserID  string
	Role    string
}

// Intake única vía de escritura de clientes sobre el buzón.
type Intake struct {
	store repository.DocumentStore
	queue Enqueuer
	log   zerolog.Logger
	now   func() time.Time
}

// NewIntake construye la entrada del buzón.
func NewIntake(store repository.DocumentStore, queue Enqueuer, log zerolog.Logger) *Intake {
	return &Intake{store: store, queue: queue, log: log, now: time.Now}
}

// Submit persiste el comando y lo encola. orderTransition es sólo para administradores;
// reserva y finalización sólo sobre órdenes propias salvo para administradores.
func (i *Intake) Submit(ctx context.Context, in SubmitInput) (string, error) {
	if !in.Type.Known() {
		return "", fmt.Errorf("%w: tipo de comando %q", domain.ErrInvalidInput, in.Type)
	}
	if in.OrderID == "" {
		return "", fmt.Errorf("%w: orderId es obligatorio", domain.ErrInvalidInput)
	}
	if in.Type == entity.CommandOrderTransition && in.Role != entity.RoleAdmin {
		return "", domain.ErrForbidden
	}
	if len(in.Payload) > 0 && !json.Valid(in.Payload) {
		return "", fmt.Errorf("%w: payload no es JSON", domain.ErrInvalidInput)
	}
	if err := i.authorize(ctx, in); err != nil {
		return "", err
	}

	cmd := entity.Command{
		CommandID: uuid.New().String(),
		Type:      in.Type,
		OrderID:   in.OrderID,
		Payload:   in.Payload,
		UserID:    in.UserID,
		CreatedAt: i.now().UTC(),
	}
	if err := i.store.Create(ctx, entity.CommandPath(cmd.CommandID), cmd); err != nil {
		return "", fmt.Errorf("create command: %w", err)
	}
	if err := i.queue.Enqueue(ctx, cmd.CommandID); err != nil {
		// persistido: Recover lo tomará en el próximo arranque
		i.log.Warn().Err(err).Str("command_id", cmd.CommandID).Msg("comando persistido sin encolar")
	}
	return cmd.CommandID, nil
}

// authorize exige que la orden pertenezca a quien envía el comando. Una orden inexistente
// pasa: el procesador la anota como order_not_found.
func (i *Intake) authorize(ctx context.Context, in SubmitInput) error {
	if in.Role == entity.RoleAdmin || in.Type == entity.CommandOrderTransition {
		return nil
	}
	var o entity.Order
	if err := i.store.Get(ctx, entity.OrderPath(in.OrderID), &o); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load order: %w", err)
	}
	if o.UserID != in.UserID {
		return domain.ErrForbidden
	}
	return nil
}

// Failed lista los comandos anotados con error.
func (i *Intake) Failed(ctx context.Context, limit int) ([]entity.Command, error) {
	docs, err := i.store.List(ctx, entity.CollectionCommands, 0)
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	out := make([]entity.Command, 0)
	for _, d := range docs {
		var cmd entity.Command
		if err := d.Decode(&cmd); err != nil {
			continue
		}
		if cmd.Failed() {
			out = append(out, cmd)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

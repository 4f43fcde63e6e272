package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/inventory"
	"github.com/jhoicas/reservas-api/internal/domain/order"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

// Ledger motor de reservas: mueve unidades entre disponible, reservado y vendido
// y escribe el estado de la orden en la misma transacción que el inventario.
// No toma locks propios; la serialización la da el almacén.
type Ledger struct {
	store  repository.DocumentStore
	log    zerolog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewLedger construye el ledger sobre el almacén de documentos.
func NewLedger(store repository.DocumentStore, log zerolog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		log:    log.With().Str("component", "ledger").Logger(),
		tracer: otel.Tracer("github.com/jhoicas/reservas-api/inventory"),
		now:    time.Now,
	}
}

// Reserve retiene en una sola transacción todas las unidades de la orden (todo o nada)
// y la pasa a reserved. Si algún producto no alcanza, la orden queda failed con el motivo.
func (l *Ledger) Reserve(ctx context.Context, orderID string) (Result, error) {
	if orderID == "" {
		return Result{}, domain.ErrInvalidInput
	}
	ctx, span := l.tracer.Start(ctx, "ledger.Reserve", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	var msg string
	err := l.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		msg = ""
		o, err := loadOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		noop, err := order.Transition(o.Status, entity.OrderStatusReserved)
		if err != nil {
			return err
		}
		if noop {
			msg = MsgAlreadyReserved
			return nil
		}
		now := l.now().UTC()
		msg = MsgReserved
		if len(o.Items) == 0 {
			msg = MsgNoItems
		} else {
			ids := o.ProductIDs()
			records, err := loadRecords(ctx, tx, ids)
			if err != nil {
				return err
			}
			if err := inventory.ApplyReservation(records, ids, o.QuantitiesByProduct()); err != nil {
				return err
			}
			if err := saveRecords(ctx, tx, records, now); err != nil {
				return err
			}
		}
		o.Status = entity.OrderStatusReserved
		o.ReservedAt = &now
		o.UpdatedAt = now
		return tx.Set(ctx, entity.OrderPath(o.OrderID), o)
	})
	return l.conclude(ctx, span, orderID, msg, err)
}

// Finalize convierte la reserva en venta: descuenta stock y reserved por producto.
// Sobre una orden ya finalizada es un no-op exitoso y no toca inventario.
func (l *Ledger) Finalize(ctx context.Context, orderID string) (Result, error) {
	if orderID == "" {
		return Result{}, domain.ErrInvalidInput
	}
	ctx, span := l.tracer.Start(ctx, "ledger.Finalize", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	var msg string
	err := l.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		msg = ""
		o, err := loadOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		noop, err := order.Transition(o.Status, entity.OrderStatusFinalized)
		if err != nil {
			return err
		}
		if noop {
			msg = MsgAlreadyFinalized
			return nil
		}
		now := l.now().UTC()
		msg = MsgFinalized
		if len(o.Items) == 0 {
			msg = MsgNoItems
		} else {
			ids := o.ProductIDs()
			records, err := loadRecords(ctx, tx, ids)
			if err != nil {
				return err
			}
			if err := inventory.ApplyFinalization(records, ids, o.QuantitiesByProduct()); err != nil {
				return err
			}
			if err := saveRecords(ctx, tx, records, now); err != nil {
				return err
			}
		}
		o.Status = entity.OrderStatusFinalized
		o.FinalizedAt = &now
		o.UpdatedAt = now
		return tx.Set(ctx, entity.OrderPath(o.OrderID), o)
	})
	return l.conclude(ctx, span, orderID, msg, err)
}

// Cancel cancela una orden pending o reserved; si estaba reservada libera sus unidades
// en la misma transacción.
func (l *Ledger) Cancel(ctx context.Context, orderID string) (Result, error) {
	if orderID == "" {
		return Result{}, domain.ErrInvalidInput
	}
	ctx, span := l.tracer.Start(ctx, "ledger.Cancel", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	var msg string
	err := l.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		msg = ""
		o, err := loadOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		noop, err := order.Transition(o.Status, entity.OrderStatusCancelled)
		if err != nil {
			return err
		}
		if noop {
			msg = MsgAlreadyCancelled
			return nil
		}
		now := l.now().UTC()
		if o.Status == entity.OrderStatusReserved && len(o.Items) > 0 {
			records, err := loadRecords(ctx, tx, o.ProductIDs())
			if err != nil {
				return err
			}
			for pid, q := range o.QuantitiesByProduct() {
				inventory.ApplyRelease(records[pid], q)
			}
			if err := saveRecords(ctx, tx, records, now); err != nil {
				return err
			}
		}
		msg = MsgCancelled
		o.Status = entity.OrderStatusCancelled
		o.CancelledAt = &now
		o.UpdatedAt = now
		return tx.Set(ctx, entity.OrderPath(o.OrderID), o)
	})
	if err != nil {
		if re, isReason := asReason(err); isReason {
			return rejected(re.Error()), nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("cancel %s: %w", orderID, err)
	}
	return ok(msg), nil
}

// Release devuelve a disponible min(reserved, qty) unidades del producto. No cambia
// el estado de ninguna orden. Retorna la cantidad liberada.
func (l *Ledger) Release(ctx context.Context, productID string, qty int64) (int64, error) {
	if productID == "" || qty <= 0 {
		return 0, domain.ErrInvalidInput
	}
	ctx, span := l.tracer.Start(ctx, "ledger.Release", trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.Int64("quantity", qty),
	))
	defer span.End()

	var released int64
	err := l.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		records, err := loadRecords(ctx, tx, []string{productID})
		if err != nil {
			return err
		}
		released = inventory.ApplyRelease(records[productID], qty)
		return saveRecords(ctx, tx, records, l.now().UTC())
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return released, nil
}

// conclude traduce el resultado de la transacción. Los rechazos de precondición dejan
// la orden en failed (salvo order_not_found e invalid_transition) y no son errores de Go.
func (l *Ledger) conclude(ctx context.Context, span trace.Span, orderID, msg string, err error) (Result, error) {
	if err == nil {
		return ok(msg), nil
	}
	reason := err.Error()
	re, isReason := asReason(err)
	if isReason {
		reason = re.Error()
	} else {
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
	}
	span.SetAttributes(attribute.String("ledger.reason", domain.TruncateReason(reason)))

	// Un error de infraestructura deja la orden intacta para que el llamador reintente.
	if !isReason {
		return rejected(reason), fmt.Errorf("order %s: %w", orderID, err)
	}
	if !marksOrderFailed(re) {
		return rejected(reason), nil
	}
	if markErr := l.markFailed(ctx, orderID, reason); markErr != nil {
		l.log.Error().Err(markErr).Str("order_id", orderID).Msg("no se pudo marcar la orden como failed")
		return rejected(reason), fmt.Errorf("mark order %s failed: %w", orderID, markErr)
	}
	return rejected(reason), nil
}

// markFailed pasa la orden a failed con el motivo truncado, sólo si aún no es terminal.
func (l *Ledger) markFailed(ctx context.Context, orderID, reason string) error {
	return l.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		var o entity.Order
		if err := tx.Get(ctx, entity.OrderPath(orderID), &o); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		if order.IsTerminal(o.Status) {
			return nil
		}
		now := l.now().UTC()
		o.Status = entity.OrderStatusFailed
		o.FailureReason = domain.TruncateReason(reason)
		o.UpdatedAt = now
		return tx.Set(ctx, entity.OrderPath(orderID), &o)
	})
}

func loadOrder(ctx context.Context, tx repository.Tx, orderID string) (*entity.Order, error) {
	var o entity.Order
	if err := tx.Get(ctx, entity.OrderPath(orderID), &o); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewReasonError(domain.ReasonOrderNotFound, orderID)
		}
		return nil, err
	}
	if o.OrderID == "" {
		o.OrderID = orderID
	}
	return &o, nil
}

// loadRecords lee todos los registros antes de cualquier escritura de la transacción.
func loadRecords(ctx context.Context, tx repository.Tx, ids []string) (map[string]*entity.InventoryRecord, error) {
	records := make(map[string]*entity.InventoryRecord, len(ids))
	for _, pid := range ids {
		var rec entity.InventoryRecord
		if err := tx.Get(ctx, entity.InventoryPath(pid), &rec); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.NewReasonError(domain.ReasonInventoryNotFound, pid)
			}
			return nil, err
		}
		rec.ProductID = pid
		records[pid] = &rec
	}
	return records, nil
}

func saveRecords(ctx context.Context, tx repository.Tx, records map[string]*entity.InventoryRecord, now time.Time) error {
	for pid, rec := range records {
		rec.UpdatedAt = now
		if err := tx.Set(ctx, entity.InventoryPath(pid), rec); err != nil {
			return err
		}
	}
	return nil
}

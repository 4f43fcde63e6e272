package order

import (
	"fmt"

	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
)

// allowed transiciones válidas del ciclo de vida. Un pending puede finalizarse directamente:
// el ledger decide si hay unidades reservadas suficientes.
var allowed = map[entity.OrderStatus][]entity.OrderStatus{
	entity.OrderStatusPending: {
		entity.OrderStatusReserved,
		entity.OrderStatusFinalized,
		entity.OrderStatusFailed,
		entity.OrderStatusCancelled,
	},
	entity.OrderStatusReserved: {
		entity.OrderStatusFinalized,
		entity.OrderStatusFailed,
		entity.OrderStatusCancelled,
	},
}

// IsTerminal finalized, failed y cancelled no admiten más transiciones.
func IsTerminal(s entity.OrderStatus) bool {
	switch s {
	case entity.OrderStatusFinalized, entity.OrderStatusFailed, entity.OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransition indica si from -> to es una transición válida (from == to no lo es).
func CanTransition(from, to entity.OrderStatus) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition valida from -> to. Reentrar al mismo estado es un no-op exitoso (noop = true).
func Transition(from, to entity.OrderStatus) (noop bool, err error) {
	if from == to {
		return true, nil
	}
	if !CanTransition(from, to) {
		return false, domain.NewReasonError(domain.ReasonInvalidTransition, fmt.Sprintf("%s->%s", from, to))
	}
	return false, nil
}

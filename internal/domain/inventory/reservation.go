package inventory

import (
	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
)

// ApplyReservation verifica disponibilidad para todas las cantidades y, sólo si todas pasan,
// incrementa Reserved en cada registro (todo o nada). ids fija el orden de verificación.
func ApplyReservation(records map[string]*entity.InventoryRecord, ids []string, qty map[string]int64) error {
	for _, pid := range ids {
		rec, ok := records[pid]
		if !ok || rec == nil {
			return domain.NewReasonError(domain.ReasonInventoryNotFound, pid)
		}
		if rec.Available() < qty[pid] {
			return domain.NewReasonError(domain.ReasonInsufficientStock, pid)
		}
	}
	for _, pid := range ids {
		records[pid].Reserved += qty[pid]
	}
	return nil
}

// ApplyFinalization exige Reserved >= qty y Stock >= qty por producto y luego descuenta ambos.
func ApplyFinalization(records map[string]*entity.InventoryRecord, ids []string, qty map[string]int64) error {
	for _, pid := range ids {
		rec, ok := records[pid]
		if !ok || rec == nil {
			return domain.NewReasonError(domain.ReasonInventoryNotFound, pid)
		}
		if rec.Reserved < qty[pid] || rec.Stock < qty[pid] {
			return domain.NewReasonError(domain.ReasonInsufficientReserved, pid)
		}
	}
	for _, pid := range ids {
		records[pid].Stock -= qty[pid]
		records[pid].Reserved -= qty[pid]
	}
	return nil
}

// ApplyRelease devuelve a disponibilidad min(Reserved, qty); nunca baja de cero.
// Retorna la cantidad efectivamente liberada.
func ApplyRelease(rec *entity.InventoryRecord, qty int64) int64 {
	if qty <= 0 {
		return 0
	}
	released := qty
	if rec.Reserved < released {
		released = rec.Reserved
	}
	rec.Reserved -= released
	return released
}

package inventory

import (
	"errors"

	"github.com/jhoicas/reservas-api/internal/domain"
)

// Mensajes de resultado exitoso del ledger.
const (
	MsgReserved         = "reserved"
	MsgFinalized        = "finalized"
	MsgCancelled        = "cancelled"
	MsgNoItems          = "no_items"
	MsgAlreadyReserved  = "already_reserved"
	MsgAlreadyFinalized = "already_finalized"
	MsgAlreadyCancelled = "already_cancelled"
)

// Result resultado de una operación del ledger. Un rechazo por precondición no es un
// error de Go: Success=false y Message lleva el motivo ("insufficient_stock:p1").
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func ok(msg string) Result { return Result{Success: true, Message: msg} }

func rejected(msg string) Result { return Result{Success: false, Message: domain.TruncateReason(msg)} }

// asReason extrae el rechazo de precondición, si lo hay.
func asReason(err error) (*domain.ReasonError, bool) {
	var re *domain.ReasonError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// marksOrderFailed indica si el rechazo debe dejar la orden en failed. Una orden
// inexistente no se puede marcar y una transición inválida no toca la orden.
func marksOrderFailed(re *domain.ReasonError) bool {
	switch re.Code {
	case domain.ReasonOrderNotFound, domain.ReasonInvalidTransition:
		return false
	}
	return true
}

package domain

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrAlreadyExists     = errors.New("el recurso ya existe")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrRateLimited       = errors.New("límite de peticiones excedido")
	ErrTxAborted         = errors.New("transacción abortada tras reintentos")
)

// Códigos de rechazo que se guardan como failureReason en la orden.
const (
	ReasonOrderNotFound        = "order_not_found"
	ReasonInventoryNotFound    = "inventory_not_found"
	ReasonInsufficientStock    = "insufficient_stock"
	ReasonInsufficientReserved = "insufficient_reserved"
	ReasonInvalidTransition    = "invalid_transition"
)

// MaxReasonLength límite de bytes del motivo persistido en la orden.
const MaxReasonLength = 200

// ReasonError rechazo por precondición: "<code>" o "<code>:<subject>".
type ReasonError struct {
	Code    string
	Subject string
}

// NewReasonError construye el error de precondición.
func NewReasonError(code, subject string) *ReasonError {
	return &ReasonError{Code: code, Subject: subject}
}

func (e *ReasonError) Error() string {
	if e.Subject == "" {
		return e.Code
	}
	return e.Code + ":" + e.Subject
}

// Unwrap permite comparar con los sentinels mediante errors.Is.
func (e *ReasonError) Unwrap() error {
	switch e.Code {
	case ReasonOrderNotFound, ReasonInventoryNotFound:
		return ErrNotFound
	case ReasonInsufficientStock:
		return ErrInsufficientStock
	default:
		return ErrConflict
	}
}

// RateLimitError rechazo del limitador; RetryAfter indica cuándo reintentar.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %dms", e.RetryAfter.Milliseconds())
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// TruncateReason recorta s a MaxReasonLength bytes sin partir runas.
func TruncateReason(s string) string {
	if len(s) <= MaxReasonLength {
		return s
	}
	cut := MaxReasonLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

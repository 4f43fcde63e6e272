package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/reservas-api/internal/domain/entity"
)

// ChargeRequest datos del cobro. Amount en unidades mayores (12.50 = doce con cincuenta).
type ChargeRequest struct {
	OrderID         string
	Amount          decimal.Decimal
	Currency        string
	Metadata        map[string]string
	SimulateFailure bool
}

// PaymentProvider puerto de salida hacia el proveedor de pagos (mock o pasarela real).
// Las fallas del proveedor se devuelven como PaymentResult{Success:false}; nunca como
// error de Go, de modo que el caller tiene una sola forma de fallo que manejar.
// Se invoca siempre fuera de una transacción del almacén.
type PaymentProvider interface {
	Charge(ctx context.Context, req ChargeRequest) entity.PaymentResult
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemDTO línea de la orden.
type OrderItemDTO struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// CreateOrderRequest cuerpo de POST /api/orders.
type CreateOrderRequest struct {
	Items    []OrderItemDTO  `json:"items"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
}

// OrderResponse representación pública de la orden.
type OrderResponse struct {
	OrderID       string          `json:"orderId"`
	UserID        string          `json:"userId"`
	Items         []OrderItemDTO  `json:"items"`
	Status        string          `json:"status"`
	FailureReason string          `json:"failureReason,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	ReservedAt    *time.Time      `json:"reservedAt,omitempty"`
	FinalizedAt   *time.Time      `json:"finalizedAt,omitempty"`
	CancelledAt   *time.Time      `json:"cancelledAt,omitempty"`
}

// CreateOrderResponse orden creada y comando de reserva asociado.
type CreateOrderResponse struct {
	Order     OrderResponse `json:"order"`
	CommandID string        `json:"commandId,omitempty"`
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CollectionOrders colección de órdenes.
const CollectionOrders = "orders"

// OrderStatus estado del ciclo de vida de la orden.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusReserved  OrderStatus = "reserved"
	OrderStatusFinalized OrderStatus = "finalized"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid indica si s es un estado conocido.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusReserved, OrderStatusFinalized, OrderStatusFailed, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem línea de la orden; la cantidad queda fija al crearla.
type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// Order orden de compra contra el inventario compartido.
type Order struct {
	OrderID       string          `json:"orderId"`
	UserID        string          `json:"userId"`
	Items         []OrderItem     `json:"items"`
	Status        OrderStatus     `json:"status"`
	FailureReason string          `json:"failureReason,omitempty"` // presente sólo si Status = failed
	Amount        decimal.Decimal `json:"amount"`                  // unidades mayores (ej. 12.50)
	Currency      string          `json:"currency,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	ReservedAt    *time.Time      `json:"reservedAt,omitempty"`
	FinalizedAt   *time.Time      `json:"finalizedAt,omitempty"`
	CancelledAt   *time.Time      `json:"cancelledAt,omitempty"`
}

// ProductIDs productos distintos referenciados, en orden de aparición.
func (o *Order) ProductIDs() []string {
	seen := make(map[string]struct{}, len(o.Items))
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}

// QuantitiesByProduct suma las cantidades por producto (un producto puede repetirse en varias líneas).
func (o *Order) QuantitiesByProduct() map[string]int64 {
	q := make(map[string]int64, len(o.Items))
	for _, it := range o.Items {
		q[it.ProductID] += it.Quantity
	}
	return q
}

// OrderPath ruta del documento de la orden.
func OrderPath(orderID string) string {
	return CollectionOrders + "/" + orderID
}

package entity

import "time"

// CollectionAuditLog registro append-only de acciones que cambian estado.
const CollectionAuditLog = "auditLog"

// Tipos de entrada de auditoría.
const (
	AuditKindReserve    = "reserveInventory"
	AuditKindFinalize   = "finalizeInventory"
	AuditKindTransition = "orderTransition"
	AuditKindWebhook    = "stripe_webhook"
	AuditKindRelease    = "releaseInventory"
	AuditKindCancel     = "cancelOrder"
)

// AuditResult resultado resumido de la acción auditada.
type AuditResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// AuditLogEntry entrada inmutable; nunca se actualiza ni se borra.
type AuditLogEntry struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	OrderID   string         `json:"orderId,omitempty"`
	ProductID string         `json:"productId,omitempty"`
	EventID   string         `json:"eventId,omitempty"`
	Event     string         `json:"event,omitempty"`
	To        string         `json:"to,omitempty"`
	Quantity  int64          `json:"quantity,omitempty"`
	Payment   *PaymentResult `json:"payment,omitempty"`
	Result    *AuditResult   `json:"result,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// AuditLogPath ruta de una entrada.
func AuditLogPath(id string) string {
	return CollectionAuditLog + "/" + id
}

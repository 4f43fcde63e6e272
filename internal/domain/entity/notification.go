package entity

import "time"

// CollectionNotifications raíz de notificaciones: notifications/{userId}/messages/{id}.
const CollectionNotifications = "notifications"

// Tipos de notificación.
const (
	NotificationOrderFinalized   = "order_finalized"
	NotificationPaymentSucceeded = "payment_succeeded"
)

// SystemRecipient destinatario cuando no hay usuario asociado.
const SystemRecipient = "system"

// Notification mensaje best-effort para el cliente.
type Notification struct {
	Type      string    `json:"type"`
	OrderID   string    `json:"orderId,omitempty"`
	PaymentID string    `json:"paymentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationsCollection colección de mensajes de un usuario.
func NotificationsCollection(userID string) string {
	return CollectionNotifications + "/" + userID + "/messages"
}

package entity

import "time"

// CollectionWebhookEvents tokens de idempotencia de eventos externos.
const CollectionWebhookEvents = "webhookEvents"

// WebhookEvent marcador write-once por id de evento externo.
type WebhookEvent struct {
	EventID     string     `json:"eventId"`
	Type        string     `json:"type"`
	OrderID     string     `json:"orderId,omitempty"`
	Processed   bool       `json:"processed"`
	ReceivedAt  time.Time  `json:"receivedAt"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}

// WebhookEventPath ruta del token del evento.
func WebhookEventPath(eventID string) string {
	return CollectionWebhookEvents + "/" + eventID
}

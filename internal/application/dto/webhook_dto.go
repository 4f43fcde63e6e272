package dto

// WebhookResponse respuesta al proveedor de pagos.
type WebhookResponse struct {
	Status string `json:"status"`
}

package entity

// PaymentResult forma única de respuesta de cualquier proveedor de pagos.
type PaymentResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

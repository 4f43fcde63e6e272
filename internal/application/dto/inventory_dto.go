package dto

// ReserveRequest cuerpo de POST /api/inventory/reserve.
type ReserveRequest struct {
	OrderID string `json:"orderId"`
}

// LedgerResponse resultado de una operación del ledger.
type LedgerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ReleaseRequest cuerpo de POST /api/inventory/release.
type ReleaseRequest struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// ReleaseResponse unidades efectivamente devueltas a disponible.
type ReleaseResponse struct {
	ProductID string `json:"productId"`
	Released  int64  `json:"released"`
}

package dto

import (
	"encoding/json"
	"time"
)

// SubmitCommandRequest cuerpo de POST /api/commands.
type SubmitCommandRequest struct {
	Type    string          `json:"type"`
	OrderID string          `json:"orderId"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SubmitCommandResponse respuesta 202.
type SubmitCommandResponse struct {
	CommandID string `json:"commandId"`
}

// CommandResponse comando anotado con error (poison).
type CommandResponse struct {
	CommandID   string          `json:"commandId"`
	Type        string          `json:"type"`
	OrderID     string          `json:"orderId"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	UserID      string          `json:"userId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	ProcessedAt *time.Time      `json:"processedAt,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// FailedCommandsResponse listado de comandos fallidos.
type FailedCommandsResponse struct {
	Commands []CommandResponse `json:"commands"`
	Page     PageResponse      `json:"page"`
}

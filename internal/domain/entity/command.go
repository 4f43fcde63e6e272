package entity

import (
	"encoding/json"
	"time"
)

// CollectionCommands buzón de comandos creados por clientes.
const CollectionCommands = "commands"

// CommandType variante cerrada de comandos soportados.
type CommandType string

const (
	CommandReserveInventory  CommandType = "reserveInventory"
	CommandFinalizeInventory CommandType = "finalizeInventory"
	CommandOrderTransition   CommandType = "orderTransition"
)

// Known indica si el tipo pertenece al conjunto cerrado.
func (t CommandType) Known() bool {
	switch t {
	case CommandReserveInventory, CommandFinalizeInventory, CommandOrderTransition:
		return true
	}
	return false
}

// Command entrada del buzón. ProcessedAt/Error sólo se escriben si el procesamiento falla.
type Command struct {
	CommandID   string          `json:"commandId"`
	Type        CommandType     `json:"type"`
	OrderID     string          `json:"orderId"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	UserID      string          `json:"userId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	ProcessedAt *time.Time      `json:"processedAt,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Failed indica si el comando quedó anotado como poison message.
func (c *Command) Failed() bool {
	return c.Error != ""
}

// FinalizePayload payload de finalizeInventory. El monto y la moneda salen siempre de la
// orden; el cliente sólo aporta metadata.
type FinalizePayload struct {
	Metadata        map[string]string `json:"metadata,omitempty"`
	SimulateFailure bool              `json:"simulateFailure,omitempty"`
}

// TransitionPayload payload de orderTransition.
type TransitionPayload struct {
	Status OrderStatus `json:"status"`
}

// CommandPath ruta del comando.
func CommandPath(commandID string) string {
	return CollectionCommands + "/" + commandID
}

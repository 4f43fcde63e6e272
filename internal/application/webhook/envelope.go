package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/jhoicas/reservas-api/internal/domain"
)

// EventType tipos de evento de pago reconocidos; el resto se ignora.
type EventType string

const (
	EventPaymentIntentSucceeded EventType = "payment_intent.succeeded"
	EventChargeSucceeded        EventType = "charge.succeeded"
)

// TriggersFinalize indica si el tipo confirma el pago.
func (t EventType) TriggersFinalize() bool {
	switch t {
	case EventPaymentIntentSucceeded, EventChargeSucceeded:
		return true
	}
	return false
}

// Envelope sobre genérico {id?, type, data:{object:{id?, metadata:{orderId}}}}.
type Envelope struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// ParseEnvelope decodifica el cuerpo del webhook.
func ParseEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return env, nil
}

// OrderID orden referenciada en la metadata del objeto.
func (e Envelope) OrderID() string {
	return e.Data.Object.Metadata["orderId"]
}

// EventID id del evento; si el proveedor no lo envía se deriva de tipo y orden, de modo
// que las reentregas del mismo evento colapsan en un único token.
func (e Envelope) EventID() string {
	if e.ID != "" {
		return e.ID
	}
	return fmt.Sprintf("derived:%s:%s", e.Type, e.OrderID())
}

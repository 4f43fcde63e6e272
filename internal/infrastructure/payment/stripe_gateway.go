package payment

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/jhoicas/reservas-api/internal/application/ports"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
)

var _ ports.PaymentProvider = (*StripeGateway)(nil)

const (
	defaultAmountMinor = 100
	defaultCurrency    = "usd"
)

// intentCreator subconjunto del cliente de Stripe que usa el gateway.
type intentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeGateway crea un PaymentIntent por cobro. Cualquier error de la pasarela se
// traduce a PaymentResult{Success:false}.
type StripeGateway struct {
	intents intentCreator
	log     zerolog.Logger
}

// NewStripeGateway construye el gateway con la API key (test o live).
func NewStripeGateway(apiKey string, log zerolog.Logger) *StripeGateway {
	sc := client.New(apiKey, nil)
	return &StripeGateway{intents: sc.PaymentIntents, log: log.With().Str("component", "stripe").Logger()}
}

func newStripeGatewayWith(intents intentCreator, log zerolog.Logger) *StripeGateway {
	return &StripeGateway{intents: intents, log: log}
}

// Charge convierte el monto a unidades menores (centavos) y crea el PaymentIntent.
func (g *StripeGateway) Charge(ctx context.Context, req ports.ChargeRequest) entity.PaymentResult {
	if req.SimulateFailure {
		return entity.PaymentResult{Success: false, Message: MsgSimulatedFailure}
	}
	amount := req.Amount.Shift(2).IntPart()
	if amount <= 0 {
		amount = defaultAmountMinor
	}
	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.OrderID != "" {
		params.AddMetadata("orderId", req.OrderID)
	}

	intent, err := g.intents.New(params)
	if err != nil {
		g.log.Warn().Err(err).Str("order_id", req.OrderID).Msg("cobro rechazado por la pasarela")
		return entity.PaymentResult{Success: false, Message: err.Error()}
	}
	return entity.PaymentResult{Success: true, ID: intent.ID, Message: MsgCreated}
}

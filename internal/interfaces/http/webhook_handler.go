package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/jhoicas/reservas-api/internal/application/dto"
	appwebhook "github.com/jhoicas/reservas-api/internal/application/webhook"
	"github.com/jhoicas/reservas-api/internal/domain"
)

// WebhookHandler recibe confirmaciones de pago del proveedor.
type WebhookHandler struct {
	handler *appwebhook.PaymentEventHandler
	secret  string
	log     zerolog.Logger
}

// NewWebhookHandler construye el handler. Con secret vacío no se verifica la firma.
func NewWebhookHandler(h *appwebhook.PaymentEventHandler, secret string, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{handler: h, secret: secret, log: log}
}

// Payments godoc
// @Summary      Webhook de pagos (Stripe)
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature  header  string  false  "firma, obligatoria si hay STRIPE_WEBHOOK_SECRET"
// @Success      200  {object}  dto.WebhookResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /webhooks/payments [post]
func (h *WebhookHandler) Payments(c *fiber.Ctx) error {
	body := c.Body()
	if h.secret != "" {
		if err := webhook.ValidatePayload(body, c.Get("Stripe-Signature"), h.secret); err != nil {
			h.log.Warn().Err(err).Msg("firma de webhook inválida")
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_SIGNATURE", Message: "firma inválida"})
		}
	}
	env, err := appwebhook.ParseEnvelope(body)
	if err != nil {
		return invalidBody(c)
	}
	out, err := h.handler.Handle(c.UserContext(), env)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ARGUMENT", Message: err.Error()})
		}
		h.log.Error().Err(err).Str("event_id", env.EventID()).Msg("webhook no procesado")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error procesando el evento"})
	}
	return c.JSON(dto.WebhookResponse{Status: string(out)})
}

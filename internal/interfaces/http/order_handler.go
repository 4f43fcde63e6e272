package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/reservas-api/internal/application/dto"
	"github.com/jhoicas/reservas-api/internal/application/order"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
)

// OrderHandler alta, consulta y cancelación de órdenes.
type OrderHandler struct {
	svc *order.Service
}

// NewOrderHandler construye el handler.
func NewOrderHandler(svc *order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// Create godoc
// @Summary      Crear orden (queda pending y se pide su reserva)
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "items, amount, currency"
// @Success      201   {object}  dto.CreateOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	items := make([]entity.OrderItem, len(in.Items))
	for i, it := range in.Items {
		items[i] = entity.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	o, commandID, err := h.svc.Create(c.UserContext(), GetUserID(c), order.CreateInput{
		Items:    items,
		Amount:   in.Amount,
		Currency: in.Currency,
	})
	if err != nil && o == nil {
		return respondError(c, err)
	}
	// Si falló el alta del comando la orden ya existe; se devuelve sin commandId.
	return c.Status(fiber.StatusCreated).JSON(dto.CreateOrderResponse{Order: toOrderResponse(o), CommandID: commandID})
}

// Get godoc
// @Summary      Consultar una orden propia (o cualquiera si admin)
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "orderId"
// @Success      200  {object}  dto.OrderResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	o, err := h.svc.Get(c.UserContext(), GetUserID(c), GetRole(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toOrderResponse(o))
}

// Cancel godoc
// @Summary      Cancelar orden pending o reserved (admin)
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "orderId"
// @Success      200  {object}  dto.LedgerResponse
// @Failure      412  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	res, err := h.svc.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if !res.Success {
		return c.Status(fiber.StatusPreconditionFailed).JSON(dto.ErrorResponse{Code: "FAILED_PRECONDITION", Message: res.Message})
	}
	return c.JSON(dto.LedgerResponse{Success: true, Message: res.Message})
}

func toOrderResponse(o *entity.Order) dto.OrderResponse {
	items := make([]dto.OrderItemDTO, len(o.Items))
	for i, it := range o.Items {
		items[i] = dto.OrderItemDTO{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return dto.OrderResponse{
		OrderID:       o.OrderID,
		UserID:        o.UserID,
		Items:         items,
		Status:        string(o.Status),
		FailureReason: o.FailureReason,
		Amount:        o.Amount,
		Currency:      o.Currency,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		ReservedAt:    o.ReservedAt,
		FinalizedAt:   o.FinalizedAt,
		CancelledAt:   o.CancelledAt,
	}
}

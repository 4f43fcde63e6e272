package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/reservas-api/internal/application/audit"
	"github.com/jhoicas/reservas-api/internal/application/dto"
	"github.com/jhoicas/reservas-api/internal/application/inventory"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
)

// InventoryHandler expone el ledger: reserva por orden y liberación administrativa.
type InventoryHandler struct {
	ledger *inventory.Ledger
	audit  *audit.Log
	log    zerolog.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.Ledger, auditLog *audit.Log, log zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, audit: auditLog, log: log}
}

// Reserve godoc
// @Summary      Reservar inventario de una orden
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveRequest  true  "orderId"
// @Success      200   {object}  dto.LedgerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      412   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.RateLimitedResponse
// @Router       /api/inventory/reserve [post]
func (h *InventoryHandler) Reserve(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.OrderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ARGUMENT", Message: "orderId es obligatorio"})
	}
	res, err := h.ledger.Reserve(c.UserContext(), in.OrderID)
	if err != nil {
		return respondError(c, err)
	}
	if !res.Success {
		return c.Status(fiber.StatusPreconditionFailed).JSON(dto.ErrorResponse{Code: "FAILED_PRECONDITION", Message: res.Message})
	}
	return c.JSON(dto.LedgerResponse{Success: res.Success, Message: res.Message})
}

// Release godoc
// @Summary      Liberar unidades reservadas de un producto (admin)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReleaseRequest  true  "productId, quantity"
// @Success      200   {object}  dto.ReleaseResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/inventory/release [post]
func (h *InventoryHandler) Release(c *fiber.Ctx) error {
	var in dto.ReleaseRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	released, err := h.ledger.Release(c.UserContext(), in.ProductID, in.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	if _, err := h.audit.Record(c.UserContext(), entity.AuditLogEntry{
		Kind:      entity.AuditKindRelease,
		ProductID: in.ProductID,
		Quantity:  released,
		Result:    audit.Result(true, ""),
	}); err != nil {
		h.log.Error().Err(err).Str("product_id", in.ProductID).Msg("no se pudo auditar la liberación")
	}
	return c.JSON(dto.ReleaseResponse{ProductID: in.ProductID, Released: released})
}

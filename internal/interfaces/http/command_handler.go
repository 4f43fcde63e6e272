package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/reservas-api/internal/application/command"
	"github.com/jhoicas/reservas-api/internal/application/dto"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
)

// CommandHandler buzón de comandos.
type CommandHandler struct {
	intake *command.Intake
}

// NewCommandHandler construye el handler.
func NewCommandHandler(intake *command.Intake) *CommandHandler {
	return &CommandHandler{intake: intake}
}

// Submit godoc
// @Summary      Encolar un comando (reserveInventory, finalizeInventory, orderTransition)
// @Tags         commands
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SubmitCommandRequest  true  "type, orderId, payload"
// @Success      202   {object}  dto.SubmitCommandResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/commands [post]
func (h *CommandHandler) Submit(c *fiber.Ctx) error {
	var in dto.SubmitCommandRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	id, err := h.intake.Submit(c.UserContext(), command.SubmitInput{
		Type:    entity.CommandType(in.Type),
		OrderID: in.OrderID,
		Payload: in.Payload,
		UserID:  GetUserID(c),
		Role:    GetRole(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.SubmitCommandResponse{CommandID: id})
}

// Failed godoc
// @Summary      Comandos anotados con error (admin)
// @Tags         commands
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "máximo 100"
// @Success      200  {object}  dto.FailedCommandsResponse
// @Router       /api/admin/commands/failed [get]
func (h *CommandHandler) Failed(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "limit inválido"})
	}
	page.DefaultPage()
	cmds, err := h.intake.Failed(c.UserContext(), page.Limit)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.CommandResponse, len(cmds))
	for i, cmd := range cmds {
		out[i] = dto.CommandResponse{
			CommandID:   cmd.CommandID,
			Type:        string(cmd.Type),
			OrderID:     cmd.OrderID,
			Payload:     cmd.Payload,
			UserID:      cmd.UserID,
			CreatedAt:   cmd.CreatedAt,
			ProcessedAt: cmd.ProcessedAt,
			Error:       cmd.Error,
		}
	}
	return c.JSON(dto.FailedCommandsResponse{Commands: out, Page: dto.PageResponse{Limit: page.Limit, Total: len(out)}})
}

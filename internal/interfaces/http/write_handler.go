package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/reservas-api/internal/application/dto"
	"github.com/jhoicas/reservas-api/internal/application/write"
)

// WriteHandler escrituras genéricas de clientes.
type WriteHandler struct {
	batch   *write.BatchWriter
	limited *write.RateLimitedWriter
}

// NewWriteHandler construye el handler.
func NewWriteHandler(batch *write.BatchWriter, limited *write.RateLimitedWriter) *WriteHandler {
	return &WriteHandler{batch: batch, limited: limited}
}

// BatchWrite godoc
// @Summary      Escritura por lotes (trozos de 450 operaciones)
// @Tags         write
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BatchWriteRequest  true  "ops y merge"
// @Success      200   {object}  dto.BatchWriteResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.BatchWritePartialResponse
// @Router       /api/batch-write [post]
func (h *WriteHandler) BatchWrite(c *fiber.Ctx) error {
	var in dto.BatchWriteRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	ops := make([]write.Op, len(in.Ops))
	for i, op := range in.Ops {
		ops[i] = write.Op{Op: op.Op, Path: op.Path, Data: op.Data}
	}
	applied, err := h.batch.Apply(c.UserContext(), ops, in.Merge)
	if err != nil {
		if applied > 0 {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.BatchWritePartialResponse{
				Code: "PARTIAL", Message: err.Error(), Applied: applied,
			})
		}
		return respondError(c, err)
	}
	return c.JSON(dto.BatchWriteResponse{Applied: applied})
}

// RateLimitedWrite godoc
// @Summary      Escritura sujeta al limitador por usuario y acción
// @Tags         write
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RateLimitedWriteRequest  true  "action, limit, windowSec, writePath, writeData"
// @Success      200   {object}  dto.RateLimitedWriteResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.RateLimitedResponse
// @Router       /api/rate-limited-write [post]
func (h *WriteHandler) RateLimitedWrite(c *fiber.Ctx) error {
	var in dto.RateLimitedWriteRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	wrote, err := h.limited.Write(c.UserContext(), GetUserID(c), write.RateLimitedInput{
		Action:    in.Action,
		Limit:     in.Limit,
		WindowSec: in.WindowSec,
		WritePath: in.WritePath,
		WriteData: in.WriteData,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.RateLimitedWriteResponse{Success: true, Wrote: wrote})
}

package http

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/reservas-api/internal/application/dto"
	"github.com/jhoicas/reservas-api/internal/domain"
)

// rateEnforcer es el contrato mínimo del limitador; lo implementa *ratelimit.Limiter.
type rateEnforcer interface {
	Enforce(ctx context.Context, principal, action string, limit int, window time.Duration) error
}

// RateLimit consume un intento de (usuario, action) antes del handler. Debe usarse
// DESPUÉS de AuthMiddleware (el principal es el user_id del token).
//   - 429 RESOURCE_EXHAUSTED → ventana agotada; Retry-After en segundos y retryAfterMs en el cuerpo.
//   - 503 RATE_LIMIT_UNAVAILABLE → el contador no respondió.
func RateLimit(limiter rateEnforcer, action string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
		}
		err := limiter.Enforce(c.UserContext(), userID, action, limit, window)
		if err == nil {
			return c.Next()
		}
		var rl *domain.RateLimitError
		if errors.As(err, &rl) {
			return respondRateLimited(c, rl)
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Code:    "RATE_LIMIT_UNAVAILABLE",
			Message: "no se pudo verificar el límite, intente más tarde",
		})
	}
}

func respondRateLimited(c *fiber.Ctx, rl *domain.RateLimitError) error {
	ms := rl.RetryAfter.Milliseconds()
	secs := (ms + 999) / 1000
	c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(secs, 10))
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.RateLimitedResponse{
		Code:         "RESOURCE_EXHAUSTED",
		Message:      "límite de peticiones excedido",
		RetryAfterMs: ms,
	})
}

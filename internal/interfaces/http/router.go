package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/reservas-api/internal/application/audit"
	"github.com/jhoicas/reservas-api/internal/application/command"
	"github.com/jhoicas/reservas-api/internal/application/inventory"
	"github.com/jhoicas/reservas-api/internal/application/order"
	"github.com/jhoicas/reservas-api/internal/application/ratelimit"
	"github.com/jhoicas/reservas-api/internal/application/webhook"
	"github.com/jhoicas/reservas-api/internal/application/write"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
)

// Acciones del limitador para las rutas de escritura.
const (
	ActionReserve    = "reserve"
	ActionBatchWrite = "batchWrite"
	ActionCommands   = "commands"
	ActionOrders     = "orders"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger        *inventory.Ledger
	Orders        *order.Service
	Intake        *command.Intake
	Webhooks      *webhook.PaymentEventHandler
	Batch         *write.BatchWriter
	LimitedWriter *write.RateLimitedWriter
	Limiter       *ratelimit.Limiter
	Audit         *audit.Log
	Log           zerolog.Logger

	JWTSecret           string
	StripeWebhookSecret string
	RateLimit           int           // intentos por ventana en rutas de escritura
	RateWindow          time.Duration
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	// Webhooks (público; la autenticidad la da la firma)
	webhookHandler := NewWebhookHandler(deps.Webhooks, deps.StripeWebhookSecret, deps.Log)
	app.Post("/webhooks/payments", webhookHandler.Payments)

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	limited := func(action string) fiber.Handler {
		return RateLimit(deps.Limiter, action, deps.RateLimit, deps.RateWindow)
	}
	adminOnly := RequireRole(entity.RoleAdmin)

	// Inventario
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Audit, deps.Log)
	api.Post("/inventory/reserve", limited(ActionReserve), inventoryHandler.Reserve)
	api.Post("/inventory/release", adminOnly, inventoryHandler.Release)

	// Escrituras genéricas; rate-limited-write consume su propia cuota por action
	writeHandler := NewWriteHandler(deps.Batch, deps.LimitedWriter)
	api.Post("/batch-write", limited(ActionBatchWrite), writeHandler.BatchWrite)
	api.Post("/rate-limited-write", writeHandler.RateLimitedWrite)

	// Comandos
	commandHandler := NewCommandHandler(deps.Intake)
	api.Post("/commands", limited(ActionCommands), commandHandler.Submit)
	api.Get("/admin/commands/failed", adminOnly, commandHandler.Failed)

	// Órdenes
	orderHandler := NewOrderHandler(deps.Orders)
	api.Post("/orders", limited(ActionOrders), orderHandler.Create)
	api.Get("/orders/:id", orderHandler.Get)
	api.Post("/orders/:id/cancel", adminOnly, orderHandler.Cancel)
}

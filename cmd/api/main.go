package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/reservas-api/internal/application/audit"
	"github.com/jhoicas/reservas-api/internal/application/command"
	"github.com/jhoicas/reservas-api/internal/application/inventory"
	"github.com/jhoicas/reservas-api/internal/application/notification"
	"github.com/jhoicas/reservas-api/internal/application/order"
	"github.com/jhoicas/reservas-api/internal/application/ports"
	"github.com/jhoicas/reservas-api/internal/application/ratelimit"
	"github.com/jhoicas/reservas-api/internal/application/webhook"
	"github.com/jhoicas/reservas-api/internal/application/write"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
	"github.com/jhoicas/reservas-api/internal/infrastructure/memstore"
	"github.com/jhoicas/reservas-api/internal/infrastructure/notify"
	"github.com/jhoicas/reservas-api/internal/infrastructure/payment"
	"github.com/jhoicas/reservas-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/reservas-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/reservas-api/internal/interfaces/http"
	"github.com/jhoicas/reservas-api/pkg/config"
	"github.com/jhoicas/reservas-api/pkg/logger"
	"github.com/jhoicas/reservas-api/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Insecure:    cfg.App.Env == "development",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configurar OpenTelemetry")
	}

	// Almacén de documentos
	var store repository.DocumentStore
	switch cfg.Store.Driver {
	case config.StoreMemory:
		store = memstore.New()
		log.Warn().Msg("almacén en memoria: los datos no sobreviven al reinicio")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migración de documents")
		}
		store = postgres.NewDocumentStore(pool)
	}

	// Contador del limitador
	var counter ratelimit.Counter = ratelimit.NewStoreCounter(store)
	if cfg.RateLimit.Backend == config.RateLimitRedis {
		client, err := infraredis.NewClient(ctx, cfg.RateLimit.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer client.Close()
		counter = infraredis.NewRateCounter(client)
	}
	limiter := ratelimit.NewLimiter(counter)

	// Pagos
	var payments ports.PaymentProvider = payment.NewMockProvider()
	if cfg.Stripe.APIKey != "" {
		payments = payment.NewStripeGateway(cfg.Stripe.APIKey, logger.Component(log, "stripe"))
	}

	// Notificaciones
	var sink ports.NotificationSink = notify.NewStoreSink(store)
	if cfg.Notify.Sink == config.NotifyKafka {
		kafkaSink := notify.NewKafkaSink(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic)
		defer closeQuietly(kafkaSink)
		sink = kafkaSink
	}
	notifier := notification.NewDispatcher(sink, notification.NewLogObserver(logger.Component(log, "notification")))

	auditLog := audit.NewLog(store)
	ledger := inventory.NewLedger(store, log)

	// Buzón de comandos
	processor := command.NewProcessor(store, ledger, payments, auditLog, notifier, log)
	queue := command.NewQueue(processor, store, cfg.Commands.Workers, cfg.Commands.QueueSize, log)
	workersCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	queue.Start(workersCtx)
	if n, err := queue.Recover(ctx); err != nil {
		log.Error().Err(err).Msg("recuperación de comandos pendientes")
	} else if n > 0 {
		log.Info().Int("commands", n).Msg("comandos pendientes reencolados")
	}
	intake := command.NewIntake(store, queue, logger.Component(log, "intake"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Reservas API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:              ledger,
		Orders:              order.NewService(store, ledger, intake, auditLog, logger.Component(log, "orders")),
		Intake:              intake,
		Webhooks:            webhook.NewPaymentEventHandler(webhook.NewGuard(store), ledger, auditLog, notifier, log),
		Batch:               write.NewBatchWriter(store),
		LimitedWriter:       write.NewRateLimitedWriter(limiter, store),
		Limiter:             limiter,
		Audit:               auditLog,
		Log:                 logger.Component(log, "http"),
		JWTSecret:           cfg.JWT.Secret,
		StripeWebhookSecret: cfg.Stripe.WebhookSecret,
		RateLimit:           cfg.RateLimit.Limit,
		RateWindow:          cfg.RateLimit.Window,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	// Sin peticiones entrantes: drenar los comandos en curso.
	queue.Close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de OpenTelemetry")
	}

	log.Info().Msg("aplicación detenida")
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}

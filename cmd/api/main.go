package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/timeledger-api/internal/application/billing"
	"github.com/jhoicas/timeledger-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/timeledger-api/internal/interfaces/http"
	"github.com/jhoicas/timeledger-api/pkg/config"
	"github.com/jhoicas/timeledger-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	policy, err := cfg.Billing.Policy()
	if err != nil {
		log.Fatal().Err(err).Msg("política de facturación")
	}

	ctx := context.Background()
	backend, err := storage.Open(ctx, cfg.DB, log.Component("storage"))
	if err != nil {
		log.Fatal().Err(err).Msg("conexión al almacenamiento")
	}
	defer backend.Close()

	applied, err := backend.Migrate(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}
	log.Info().Int("applied", applied).Msg("esquema al día")

	entries := billing.NewTimeEntryStore(backend.TxRunner, backend.TimeEntries)
	lifecycle := billing.NewInvoiceLifecycleManager(backend.TxRunner, entries)
	ledgerUC := billing.NewLedgerUseCase(
		backend.TxRunner, entries, lifecycle, backend.Invoices, policy, log.Component("ledger"),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if cfg.HTTP.SwaggerPath != "" {
		if _, err := os.Stat(cfg.HTTP.SwaggerPath); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.HTTP.SwaggerPath,
				Path:     "docs",
				Title:    "TimeLedger API",
			}))
		} else {
			log.Warn().Str("path", cfg.HTTP.SwaggerPath).Msg("swagger.json no encontrado, /docs deshabilitado")
		}
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Entries:   entries,
		Ledger:    ledgerUC,
		JWTSecret: cfg.JWT.Secret,
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

	log.Info().Msg("aplicación detenida")
}

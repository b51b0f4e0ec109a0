package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"agenda/docs"
	"agenda/internal/config"
	"agenda/internal/database"
	"agenda/internal/database/migration"
	handlers "agenda/internal/http/handler"
	"agenda/internal/http/middleware"
	"agenda/internal/logging"
	"agenda/internal/otel"
	"agenda/internal/repository"
	"agenda/internal/repository/memory"
	"agenda/internal/repository/postgres"
	"agenda/internal/service"
	"agenda/internal/storage"
)

type repositories struct {
	db       *sql.DB
	contacts repository.ContactRepository
	products repository.ProductRepository
}

// openRepositories selects the persistence backend. db stays nil for memory.
func openRepositories(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*repositories, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		return &repositories{
			contacts: memory.NewContactMemory(),
			products: memory.NewProductMemory(),
		}, nil
	case config.StorePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
				db.Close()
				return nil, fmt.Errorf("migrate database: %w", err)
			}
		}
		return &repositories{
			db:       db,
			contacts: postgres.NewContactPostgres(db),
			products: postgres.NewProductPostgres(db),
		}, nil
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

// @title Agenda API
// @version 1.0
// @description Contacts and product catalog service.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.NewStdout(cfg.Location(), cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal("tracing_init_failed", zap.Error(err))
	}

	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		log.Fatal("store_init_failed", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	if repos.db != nil {
		defer repos.db.Close()
	}
	log.Info("store_ready", zap.String("backend", cfg.StoreBackend))

	// Object storage is optional; without it image endpoints answer 503.
	var objStore storage.Storage
	if cfg.MinIO.Enabled() {
		objStore, err = storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			log.Fatal("storage_init_failed", zap.Error(err))
		}
	} else {
		log.Warn("storage_disabled", zap.String("reason", "MINIO_ENDPOINT is empty"))
	}

	contactSvc := service.NewContactService(repos.contacts, log)
	productSvc := service.NewProductService(repos.products, objStore, cfg.ImageURLExpiry(), log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal("metrics_init_failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    16 * 1024 * 1024,
	})

	app.Use(otelfiber.Middleware())
	// RequestID must run before Logger so every log line carries it.
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	handlers.RegisterRoutes(app, repos.db, objStore, contactSvc, productSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		host := c.Get("Host")
		if host == "" {
			host = cfg.AppHost
		}
		docs.SwaggerInfo.Host = host
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("server_listening", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			log.Error("server_stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("server_shutdown_failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing_shutdown_failed", zap.Error(err))
	}
	log.Info("server_shutdown_complete")
}

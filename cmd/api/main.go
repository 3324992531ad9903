package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"companydocs/docs"
	"companydocs/internal/auth"
	"companydocs/internal/cache"
	"companydocs/internal/config"
	"companydocs/internal/database"
	"companydocs/internal/database/migration"
	handlers "companydocs/internal/http/handler"
	"companydocs/internal/http/middleware"
	"companydocs/internal/logger"
	"companydocs/internal/otel"
	"companydocs/internal/repository/postgres"
	"companydocs/internal/service"
	"companydocs/internal/storage"
	"companydocs/internal/validation"
)

// multipart framing and form fields on top of the file itself
const bodyLimitHeadroom = 1 << 20

// @title Company Documents API
// @version 1.0
// @description Upload, list, sign and share company documents.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migration.EnsureMigrated(ctx, db, log); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	startupCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Storage.OperationTimeout)*time.Second)
	objStore, err := storage.New(startupCtx, cfg)
	cancel()
	if err != nil {
		log.Fatal("failed to initialize object storage", zap.Error(err), zap.String("driver", cfg.Storage.Driver))
	}

	var docCache cache.DocumentCache = cache.NoopCache{}
	if cfg.Redis.Addr != "" {
		rdb := cache.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		docCache = cache.NewRedis(rdb, time.Duration(cfg.Redis.TTLSec)*time.Second)
		log.Info("document cache enabled", zap.String("redis_addr", cfg.Redis.Addr))
	}

	verifier, err := auth.New(cfg.Auth)
	if err != nil {
		log.Fatal("failed to initialize authentication", zap.Error(err))
	}
	if _, ok := verifier.(auth.Anonymous); ok {
		log.Warn("authentication disabled, every request runs as the development identity")
	}

	docRepo := postgres.NewDocumentPostgres(db)
	companyRepo := postgres.NewCompanyPostgres(db)
	shareRepo := postgres.NewSharePostgres(db)

	expiry := time.Duration(cfg.Storage.SignedURLExpSec) * time.Second
	docSvc := service.NewDocumentService(
		objStore,
		docRepo,
		companyRepo,
		validation.NewFileValidator(cfg.Upload.MaxBytes, cfg.Upload.AllowedExtensions),
		docCache,
		log.Named("documents"),
		service.DocumentOptions{Category: cfg.Storage.Category, SignedURLExpiry: expiry},
	)
	companySvc := service.NewCompanyService(companyRepo)
	shareSvc := service.NewShareService(shareRepo, companyRepo, docRepo, objStore, log.Named("shares"), expiry)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.Upload.MaxBytes) + bodyLimitHeadroom,
	})

	metrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal("failed to register metrics", zap.Error(err))
	}

	app.Use(recover.New())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(metrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, handlers.Dependencies{
		DB:        db,
		Documents: docSvc,
		Companies: companySvc,
		Shares:    shareSvc,
		Verifier:  verifier,
		Validator: validation.NewValidator(),
	})

	serverErrors := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("server listening", zap.String("addr", addr))
		serverErrors <- app.Listen(addr)
	}()

	select {
	case err := <-serverErrors:
		if err != nil {
			log.Error("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}

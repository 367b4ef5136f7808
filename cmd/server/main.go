package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/config"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/database"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/handlers"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/logging"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/middleware"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/repository"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/routes"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewJSONHandler(os.Stdout),
		pgLogHandler,
	)))

	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetention, cleanupDone)

	// Repositories
	accountRepo := repository.NewAccountRepository(database.DB)
	submissionRepo := repository.NewSubmissionRepository(database.DB)

	// Identity provider
	var provider services.IdentityProvider
	switch cfg.IdentityMode {
	case config.IdentityModeMock:
		slog.Warn("using mock identity provider; login codes map directly to openids")
		provider = services.MockIdentityProvider{}
	default:
		provider = services.NewWeChatClient(cfg.WeChat.BaseURL, cfg.WeChat.AppID, cfg.WeChat.Secret, cfg.WeChat.Timeout)
	}

	// Services
	tokenIssuer := services.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	authService := services.NewAuthService(accountRepo, provider, tokenIssuer)
	submissionService := services.NewSubmissionService(submissionRepo, accountRepo, cfg.MaxPageSize)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(database.Ping, cfg.Env)
	submissionHandler := handlers.NewSubmissionHandler(submissionService)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: cfg.SentryTracesSampleRate,
			Environment:      cfg.Env,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: handlers.ErrorHandler(cfg.IsProduction()),
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${respHeader:X-Request-ID}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, cfg.JWTSecret, accountRepo, authHandler, healthHandler, submissionHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "identity_mode", cfg.IdentityMode)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

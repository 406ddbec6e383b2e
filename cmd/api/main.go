package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/help-queue/internal/api/http"
	"github.com/spec-kit/help-queue/internal/api/http/handlers"
	"github.com/spec-kit/help-queue/internal/app"
	"github.com/spec-kit/help-queue/internal/auth"
	"github.com/spec-kit/help-queue/internal/config"
	"github.com/spec-kit/help-queue/internal/observability"
	"github.com/spec-kit/help-queue/internal/service"
	"github.com/spec-kit/help-queue/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to start backends", zap.Error(err))
	}
	defer backend.Close()

	worker.StartNotificationWorker(backend.Notifications)

	sessions := service.NewQueueSessions(backend.Tickets, logger)
	defer sessions.Close()
	sweeperDone := worker.StartSessionSweeper(ctx, sessions, cfg.Queue.SweepInterval(), cfg.Queue.SessionIdle(), logger)

	authMiddleware := auth.NewAuthMiddleware(backend.Auth.TokenManager(), backend.Users, cfg.Auth.CookieName)
	metrics := observability.NewMetrics()

	server := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(server, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(server, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, backend.Postgres, backend.Redis, metrics),
		Users:          handlers.NewUsersHandler(backend.Auth),
		Tickets:        handlers.NewTicketsHandler(backend.Tickets, logger, handlers.DefaultHeartbeat),
		Queue:          handlers.NewQueueHandler(sessions, logger, handlers.DefaultHeartbeat),
		Session:        handlers.NewSessionHandler(backend.Auth, sessions, cfg.Auth.CookieName, cfg.App.Env == "production"),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := server.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	<-sweeperDone
	sessions.Close()
	_ = server.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

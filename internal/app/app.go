// Package app wires the backends and services shared by the HTTP server and the
// terminal client.
package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/help-queue/internal/config"
	"github.com/spec-kit/help-queue/internal/events"
	"github.com/spec-kit/help-queue/internal/persistence"
	"github.com/spec-kit/help-queue/internal/repository"
	"github.com/spec-kit/help-queue/internal/service"
)

// App holds backends and services for one process.
type App struct {
	Config        *config.Config
	Logger        *zap.Logger
	Postgres      *persistence.Postgres
	Redis         *persistence.Redis
	Dispatcher    events.Dispatcher
	Users         repository.UserRepository
	TicketRepo    repository.TicketRepository
	Tickets       *service.TicketService
	Auth          *service.AuthService
	Notifications *service.NotificationService

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New connects to the configured backends, falling back to in-memory storage and
// in-process fan-out when they are not configured.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, err
	}

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			pg.Close()
			return nil, err
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	a := &App{Config: cfg, Logger: logger, Postgres: pg, cancel: cancel}

	if pg.Enabled() {
		pool := pg.PoolHandle()
		a.Users = repository.NewUserRepository(pool)
		a.TicketRepo = repository.NewTicketRepository(pool)
	} else {
		a.Users = repository.NewMemoryUserRepository()
		a.TicketRepo = repository.NewMemoryTicketRepository()
	}

	local := events.NewInMemoryDispatcher()
	a.Dispatcher = local
	if cfg.Queue.Fanout == config.FanoutRedis {
		a.Redis = persistence.NewRedis(cfg.Redis, logger)
		if a.Redis.Reachable {
			relay := events.NewRedisDispatcher(a.Redis.Client, cfg.Queue.Channel, local, logger)
			a.Dispatcher = relay
			a.wg.Add(1)
			go func() {
				defer a.wg.Done()
				if err := relay.Run(runCtx); err != nil {
					logger.Error("ticket event relay stopped", zap.Error(err))
				}
			}()
		} else {
			logger.Warn("redis unreachable; ticket events stay in this process")
		}
	}

	a.Tickets = service.NewTicketService(service.TicketDependencies{
		TicketRepo: a.TicketRepo,
		Dispatcher: a.Dispatcher,
		Logger:     logger,
	})
	a.Auth = service.NewAuthService(*cfg, service.AuthDependencies{UserRepo: a.Users})
	a.Notifications = service.NewNotificationService(a.Dispatcher, logger, cfg.Notification)

	return a, nil
}

// Close stops the event relay and releases backend connections.
func (a *App) Close() {
	a.cancel()
	a.wg.Wait()
	a.Notifications.Close()
	a.Redis.Close()
	a.Postgres.Close()
}

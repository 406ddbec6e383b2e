package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/spec-kit/help-queue/internal/app"
	"github.com/spec-kit/help-queue/internal/config"
	"github.com/spec-kit/help-queue/internal/domain"
	"github.com/spec-kit/help-queue/internal/observability"
	"github.com/spec-kit/help-queue/internal/persistence"
	"github.com/spec-kit/help-queue/internal/seed"
	"github.com/spec-kit/help-queue/internal/tui"
)

var version = "dev"

// CLI is the top-level command structure for helpqueue.
type CLI struct {
	Version kong.VersionFlag `help:"Show version." short:"V"`
	TUI     TUICmd           `cmd:"" name:"tui" default:"withargs" help:"Open the queue in the terminal."`
	Seed    SeedCmd          `cmd:"" help:"Load tickets from a YAML file into the queue."`
	Migrate MigrateCmd       `cmd:"" help:"Apply database migrations."`
}

// TUICmd opens the interactive queue screen.
type TUICmd struct {
	Email    string `help:"Email to sign in with." env:"HELPQUEUE_EMAIL"`
	Password string `help:"Password to sign in with." env:"HELPQUEUE_PASSWORD"`
	Register string `help:"Create an account with this display name before signing in." placeholder:"NAME"`
	LogFile  string `help:"Write logs to this file instead of the terminal." default:"helpqueue.log" type:"path"`
}

// Run executes the tui command.
func (c *TUICmd) Run(cfg *config.Config) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return errors.New("tui: stdout is not a terminal")
	}

	cfg.Logger.Output = c.LogFile
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	backend, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	defer backend.Close()

	if c.Register != "" {
		if _, _, _, err := backend.Auth.RegisterUser(ctx, c.Register, c.Email, c.Password); err != nil {
			return fmt.Errorf("tui: register: %w", err)
		}
	}

	m := tui.NewModel(tui.Options{
		Store: backend.Tickets,
		SignIn: func(ctx context.Context, email, password string) (*domain.User, error) {
			user, _, _, err := backend.Auth.LoginUser(ctx, email, password)
			return user, err
		},
		Logger:   logger,
		Email:    c.Email,
		Password: c.Password,
	})
	defer m.Close()

	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// SeedCmd creates tickets from a YAML file.
type SeedCmd struct {
	File string `arg:"" help:"YAML file with a tickets list." type:"existingfile"`
}

// Run executes the seed command.
func (c *SeedCmd) Run(cfg *config.Config) error {
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	defer f.Close()

	tickets, err := seed.Load(f)
	if err != nil {
		return fmt.Errorf("seed: %s: %w", c.File, err)
	}

	ctx := context.Background()
	backend, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	defer backend.Close()

	if !backend.Postgres.Enabled() {
		logger.Warn("no database configured; seeded tickets live only for this run")
	}

	n, err := seed.Apply(ctx, backend.Tickets, tickets)
	logger.Info("seeded tickets", zap.Int("created", n), zap.Int("total", len(tickets)))
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Printf("created %d of %d tickets\n", n, len(tickets))
	return nil
}

// MigrateCmd applies the SQL migrations in the configured directory.
type MigrateCmd struct {
	Dir string `help:"Migrations directory. Defaults to the configured one." type:"path"`
}

// Run executes the migrate command.
func (c *MigrateCmd) Run(cfg *config.Config) error {
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer pg.Close()

	if !pg.Enabled() {
		return errors.New("migrate: POSTGRES_DSN is not set")
	}

	dir := cfg.Postgres.MigrationsDir
	if c.Dir != "" {
		dir = c.Dir
	}
	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), dir, logger); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "helpqueue: %v\n", err)
		os.Exit(1)
	}
	// Only the HTTP server runs migrations implicitly.
	cfg.Postgres.RunMigrations = false

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("helpqueue"),
		kong.Description("Help queue terminal client and maintenance commands."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Bind(cfg),
	)
	ctx.FatalIfErrorf(ctx.Run())
}

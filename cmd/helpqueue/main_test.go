package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/spec-kit/help-queue/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Logger: config.LoggerConfig{Level: "error", Output: "stderr"},
		Auth:   config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 5, BcryptCost: 4},
		Queue:  config.QueueConfig{Fanout: config.FanoutMemory},
	}
}

func newParser(t *testing.T, cli *CLI, out *bytes.Buffer) *kong.Kong {
	t.Helper()
	k, err := kong.New(cli,
		kong.Vars{"version": "test"},
		kong.Writers(out, out),
		kong.Bind(testConfig()),
	)
	if err != nil {
		t.Fatal(err)
	}
	return k
}

func TestCLI_DefaultsToTUI(t *testing.T) {
	var cli CLI
	var out bytes.Buffer
	ctx, err := newParser(t, &cli, &out).Parse([]string{"--email", "ada@example.com"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := ctx.Command(); got != "tui" {
		t.Errorf("Command() = %q, want tui", got)
	}
	if cli.TUI.Email != "ada@example.com" {
		t.Errorf("Email = %q", cli.TUI.Email)
	}
	if filepath.Base(cli.TUI.LogFile) != "helpqueue.log" {
		t.Errorf("LogFile = %q, want default helpqueue.log", cli.TUI.LogFile)
	}
}

func TestCLI_SeedRequiresExistingFile(t *testing.T) {
	var cli CLI
	var out bytes.Buffer
	_, err := newParser(t, &cli, &out).Parse([]string{"seed", filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil {
		t.Fatal("Parse() accepted a missing seed file")
	}
}

func TestSeedCmd_Run(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.yaml")
	data := strings.Join([]string{
		"tickets:",
		"  - names: Ada & Grace",
		"    location: 4B",
		"    issue: Firebase won't save record",
		"  - names: Linus & Ken",
		"    location: 3A",
		"    issue: Segfault",
	}, "\n")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := SeedCmd{File: path}
	if err := cmd.Run(testConfig()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestSeedCmd_RunRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.yaml")
	if err := os.WriteFile(path, []byte("tickets:\n  - names: Solo\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := SeedCmd{File: path}
	err := cmd.Run(testConfig())
	if err == nil || !strings.Contains(err.Error(), "tickets.yaml") {
		t.Fatalf("Run() error = %v, want error naming the file", err)
	}
}

func TestMigrateCmd_RequiresDatabase(t *testing.T) {
	cmd := MigrateCmd{}
	if err := cmd.Run(testConfig()); err == nil {
		t.Fatal("Run() without a DSN succeeded")
	}
}

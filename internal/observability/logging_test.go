package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/help-queue/internal/config"
)

func TestNewLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "helpqueue.log")
	logger, err := NewLogger(config.LoggerConfig{Level: "warn", Output: path})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Info("dropped")
	logger.Warn("ticket write failed", zap.String("op", "create"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if strings.Contains(got, "dropped") {
		t.Error("info entry written at warn level")
	}
	if !strings.Contains(got, `"message":"ticket write failed"`) || !strings.Contains(got, `"op":"create"`) {
		t.Errorf("log = %q, want JSON warn entry", got)
	}
}

func TestNewLogger_UnknownLevelIsInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "loud", Output: filepath.Join(t.TempDir(), "x.log")})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) || logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("unknown level did not fall back to info")
	}
}

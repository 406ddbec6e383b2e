package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper releases idle queue sessions.
type Sweeper interface {
	Sweep(now time.Time, idle time.Duration) int
}

// StartSessionSweeper releases sessions idle for at least idle, checking every
// interval, until ctx is done. The returned channel is closed when it exits. A
// non-positive idle disables sweeping.
func StartSessionSweeper(ctx context.Context, sessions Sweeper, interval, idle time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if idle <= 0 || interval <= 0 {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := sessions.Sweep(now, idle); n > 0 {
					logger.Info("released idle queue sessions", zap.Int("count", n))
				}
			}
		}
	}()
	return done
}

package lock

import (
	"context"
	"time"

	"github.com/hubvault/hubvault/internal/logger"
)

// DefaultReapInterval is how often the background sweep runs.
const DefaultReapInterval = 15 * time.Minute

// Reaper periodically removes lapsed locks. Reaping is an optimization,
// not a correctness requirement: readers and acquirers already treat
// expired locks as absent, the sweep just keeps the table from growing.
type Reaper struct {
	manager  *Manager
	interval time.Duration
}

// NewReaper creates a reaper sweeping every interval. A zero or negative
// interval falls back to DefaultReapInterval.
func NewReaper(m *Manager, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	return &Reaper{manager: m, interval: interval}
}

// Run sweeps until ctx is canceled, then performs one final sweep so a
// clean shutdown leaves no lapsed rows behind. Sweep failures are logged
// and the loop keeps going.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logger.Info("lock reaper started", "interval", r.interval.String())

	for {
		select {
		case <-ctx.Done():
			// Final sweep runs on a fresh context; the loop's is done.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if _, err := r.manager.ReapExpired(shutdownCtx); err != nil {
				logger.Warn("final lock sweep failed", logger.Err(err))
			}
			cancel()
			logger.Info("lock reaper stopped")
			return
		case <-ticker.C:
			if _, err := r.manager.ReapExpired(ctx); err != nil {
				logger.Warn("lock sweep failed", logger.Err(err))
			}
		}
	}
}

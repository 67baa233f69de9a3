package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/tmnkosi/bankgate/internal/ledger"
)

// CleanupManager periodically sweeps aged-out attempt records from ledger
// stores that need it. The Redis store expires records via TTL and is not
// registered here.
type CleanupManager struct {
	sweepers []ledger.Sweeper
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager over the given sweepers
func NewCleanupManager(logger *slog.Logger, interval time.Duration, sweepers ...ledger.Sweeper) *CleanupManager {
	return &CleanupManager{
		sweepers: sweepers,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep. Blocks until Stop or ctx cancellation.
func (cm *CleanupManager) Start(ctx context.Context) {
	if len(cm.sweepers) == 0 {
		return
	}

	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runSweep(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	total := 0
	for _, sweeper := range cm.sweepers {
		removed, err := sweeper.DeleteExpired(sweepCtx)
		if err != nil {
			cm.logger.Error("failed to sweep expired attempt records", slog.Any("error", err))
			continue
		}
		total += removed
	}

	if total > 0 {
		cm.logger.Info("expired attempt records swept", slog.Int("records_removed", total))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}

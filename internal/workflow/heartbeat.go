package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"slidecast/internal/logging"
	"slidecast/internal/session"
)

// HeartbeatMonitor keeps session heartbeats fresh while a job runs and
// reclaims sessions whose worker stopped reporting.
type HeartbeatMonitor struct {
	store    *session.Store
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

// NewHeartbeatMonitor creates a new monitor.
func NewHeartbeatMonitor(store *session.Store, logger *slog.Logger, interval, timeout time.Duration) *HeartbeatMonitor {
	return &HeartbeatMonitor{
		store:    store,
		logger:   logger,
		interval: interval,
		timeout:  timeout,
	}
}

// ReclaimStale fails processing sessions whose heartbeat is older than the
// configured timeout.
func (h *HeartbeatMonitor) ReclaimStale(ctx context.Context, logger *slog.Logger) error {
	if h.timeout <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-h.timeout)
	reclaimed, err := h.store.ReclaimStaleRunning(ctx, cutoff)
	if err != nil {
		return err
	}
	if reclaimed > 0 && logger != nil {
		logger.Info("reclaimed stale sessions", logging.Int64("count", reclaimed))
	}
	return nil
}

// StartLoop updates the heartbeat for one session until context cancellation.
func (h *HeartbeatMonitor) StartLoop(ctx context.Context, wg *sync.WaitGroup, sessionID string) {
	defer wg.Done()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	logger := logging.WithContext(ctx, h.logger.With(logging.String("component", "workflow-heartbeat")))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.store.UpdateHeartbeat(ctx, sessionID); err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Info("daemon shutting down, heartbeat update cancelled")
				} else {
					logger.Warn("heartbeat update failed", logging.Error(err))
				}
			}
		}
	}
}

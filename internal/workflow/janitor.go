package workflow

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"slidecast/internal/logging"
)

// runJanitor periodically reclaims sessions with lost heartbeats and deletes
// sessions past their TTL along with their on-disk directories.
func (m *Manager) runJanitor(ctx context.Context) {
	defer m.wg.Done()

	interval := time.Duration(m.cfg.Workflow.JanitorInterval) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	logger := m.logger.With(logging.String("component", "workflow-janitor"))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx, logger)
		}
	}
}

func (m *Manager) sweep(ctx context.Context, logger *slog.Logger) {
	if err := m.heartbeat.ReclaimStale(ctx, m.logger); err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warn("reclaim stale sessions failed; stuck sessions may remain", logging.Error(err))
			m.setLastError(err)
		}
		return
	}

	expired, err := m.store.ExpireBefore(ctx, time.Now().UTC())
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warn("session expiry sweep failed", logging.Error(err))
			m.setLastError(err)
		}
		return
	}
	for _, record := range expired {
		dir := m.cfg.SessionDir(record.ID)
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("failed to remove expired session directory",
				logging.String("session_id", record.ID),
				logging.String("dir", dir),
				logging.Error(err))
		}
		// The rendered video lives in the output dir, not the session dir.
		if record.VideoFile == "" {
			continue
		}
		if err := os.Remove(record.VideoFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("failed to remove expired video",
				logging.String("session_id", record.ID),
				logging.String("video_file", record.VideoFile),
				logging.Error(err))
		}
	}
	if len(expired) > 0 {
		logger.Info("expired sessions removed", logging.Int("count", len(expired)))
	}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

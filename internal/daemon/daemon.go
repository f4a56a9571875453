package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"slidecast/internal/api"
	"slidecast/internal/config"
	"slidecast/internal/deps"
	"slidecast/internal/logging"
	"slidecast/internal/session"
	"slidecast/internal/workflow"
)

// Version identifies the daemon build in status payloads.
var Version = "0.1.0"

// Daemon coordinates the workflow manager and the HTTP API and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *session.Store
	workflow *workflow.Manager

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *session.Store, logger *slog.Logger, wf *workflow.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "slidecastd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		workflow: wf,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and launches the workflow manager and API
// server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another slidecast daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	if err := d.workflow.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		d.workflow.Stop()
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("slidecast daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.Addr()))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("slidecast daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the API server's listen address, valid after Start.
func (d *Daemon) Addr() string {
	return d.api.Addr()
}

// Workflow exposes the orchestrator for API handlers.
func (d *Daemon) Workflow() *workflow.Manager {
	return d.workflow
}

// Dependencies reports the availability of external collaborators.
func (d *Daemon) Dependencies() []deps.Status {
	return deps.Check(d.cfg)
}

// DeleteSession cancels any running job for the session, removes its record,
// and destroys its on-disk artifacts.
func (d *Daemon) DeleteSession(ctx context.Context, sessionID string) error {
	d.workflow.Cancel(sessionID)

	sess, err := d.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if _, err := d.store.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	if err := os.RemoveAll(d.cfg.SessionDir(sessionID)); err != nil {
		d.logger.Warn("failed to remove session directory",
			logging.String("session_id", sessionID),
			logging.Error(err))
	}
	if sess.VideoFile != "" {
		if err := os.Remove(sess.VideoFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			d.logger.Warn("failed to remove rendered video",
				logging.String("session_id", sessionID),
				logging.Error(err))
		}
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	summary := d.workflow.Status(ctx)
	statuses := d.Dependencies()
	dependencies := make([]api.DependencyStatus, 0, len(statuses))
	for _, status := range statuses {
		dependencies = append(dependencies, api.DependencyStatus{
			Name:      status.Name,
			Available: status.Available,
			Detail:    status.Detail,
			Solution:  status.Solution,
		})
	}
	return api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Version:      Version,
		DBPath:       filepath.Join(d.cfg.Paths.LogDir, "sessions.db"),
		LockFilePath: d.lockPath,
		Workflow:     api.FromStatusSummary(summary),
		Dependencies: dependencies,
	}
}

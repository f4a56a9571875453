package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"slidecast/internal/config"
	"slidecast/internal/logging"
	"slidecast/internal/script"
	"slidecast/internal/session"
	"slidecast/internal/stage"
	"slidecast/internal/video"
	"slidecast/internal/voice"
)

// Manager coordinates generation jobs using registered stage handlers.
type Manager struct {
	cfg       *config.Config
	store     *session.Store
	logger    *slog.Logger
	handlers  map[session.Stage]stage.Handler
	heartbeat *HeartbeatMonitor

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	jobs    map[string]*Job
	lastErr error
}

// NewManager constructs a workflow manager with the production stage handlers.
func NewManager(cfg *config.Config, store *session.Store, logger *slog.Logger) *Manager {
	handlers := map[session.Stage]stage.Handler{
		session.StageScript: script.NewScripter(cfg, store, logger),
		session.StageVoice:  voice.NewSynthesizer(cfg, store, logger),
		session.StageVideo:  video.NewRenderer(cfg, store, logger),
	}
	return NewManagerWithHandlers(cfg, store, logger, handlers)
}

// NewManagerWithHandlers constructs a workflow manager with custom stage
// handlers (used in tests).
func NewManagerWithHandlers(cfg *config.Config, store *session.Store, logger *slog.Logger, handlers map[session.Stage]stage.Handler) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:      cfg,
		store:    store,
		logger:   logger.With(logging.String("component", "workflow-manager")),
		handlers: handlers,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		jobs: make(map[string]*Job),
	}
}

// Start begins background maintenance. Generation jobs are started on demand
// through StartGeneration.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.handlers) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.runJanitor(runCtx)
	return nil
}

// Stop terminates background processing, cancels in-flight jobs, and fails
// their sessions so clients are not left polling a dead daemon.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	active := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		active = append(active, job)
	}
	m.mu.Unlock()

	cancel()
	// Job contexts are detached from the caller's context, so each one has
	// to be canceled explicitly or Wait blocks for a full render.
	for _, job := range active {
		job.cancel()
	}
	m.wg.Wait()

	ctx, release := context.WithTimeout(context.Background(), 5*time.Second)
	defer release()
	if failed, err := m.store.FailRunning(ctx, session.DaemonStopReason); err != nil {
		m.logger.Warn("failed to mark running sessions stopped", logging.Error(err))
	} else if failed > 0 {
		m.logger.Info("marked running sessions stopped", logging.Int64("count", failed))
	}
}

// Running reports whether background processing is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// ActiveJob returns the in-flight job for a session, if any.
func (m *Manager) ActiveJob(sessionID string) (*Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[sessionID]
	return job, ok
}

// Cancel aborts the in-flight job for a session. It returns false when no job
// is running for the session.
func (m *Manager) Cancel(sessionID string) bool {
	m.mu.RLock()
	job, ok := m.jobs[sessionID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	job.cancel()
	return true
}

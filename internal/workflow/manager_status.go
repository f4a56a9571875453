package workflow

import (
	"context"

	"slidecast/internal/logging"
	"slidecast/internal/session"
	"slidecast/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running      bool
	ActiveJobs   int
	LastError    string
	SessionStats map[session.Status]int
	StageHealth  map[session.Stage]stage.Health
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	active := len(m.jobs)
	lastErr := m.lastErr
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read session stats", logging.Error(err))
	}

	summary := StatusSummary{
		Running:      running,
		ActiveJobs:   active,
		SessionStats: stats,
		StageHealth:  m.HealthChecks(ctx),
	}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	return summary
}

// HealthChecks runs every stage handler's health check in pipeline order.
func (m *Manager) HealthChecks(ctx context.Context) map[session.Stage]stage.Health {
	health := make(map[session.Stage]stage.Health, len(m.handlers))
	for _, current := range session.StageOrder {
		handler, ok := m.handlers[current]
		if !ok || handler == nil {
			continue
		}
		health[current] = handler.HealthCheck(ctx)
	}
	return health
}

// FirstUnready returns the first stage health check that is not ready, in
// pipeline order. Used to answer generation requests with a remediation hint
// when a dependency is missing.
func (m *Manager) FirstUnready(ctx context.Context) (stage.Health, bool) {
	for _, current := range session.StageOrder {
		handler, ok := m.handlers[current]
		if !ok || handler == nil {
			continue
		}
		if health := handler.HealthCheck(ctx); !health.Ready {
			return health, true
		}
	}
	return stage.Health{}, false
}

package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"slidecast/internal/logging"
	"slidecast/internal/services"
	"slidecast/internal/session"
	"slidecast/internal/stage"
)

// StartGeneration begins a new generation attempt for the session and runs
// the pipeline in the background. At most one job per session may be active.
func (m *Manager) StartGeneration(ctx context.Context, sessionID string, transition float64, slide string) (*Job, error) {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil, errors.New("workflow not running")
	}
	if _, busy := m.jobs[sessionID]; busy {
		m.mu.Unlock()
		return nil, session.ErrGenerationActive
	}
	// Reserve the session's job slot before touching the store so a
	// concurrent request cannot reset an attempt this goroutine is about
	// to run.
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	job := newJob(sessionID, cancel)
	m.jobs[sessionID] = job
	m.wg.Add(1)
	m.mu.Unlock()

	sess, err := m.store.BeginAttempt(ctx, sessionID, transition, slide)
	if err != nil {
		m.mu.Lock()
		delete(m.jobs, sessionID)
		m.mu.Unlock()
		m.wg.Done()
		cancel()
		return nil, err
	}

	go m.runJob(jobCtx, job, sess)
	return job, nil
}

func (m *Manager) runJob(ctx context.Context, job *Job, sess *session.Session) {
	defer m.wg.Done()
	defer job.cancel()

	err := m.runStages(ctx, sess)

	m.mu.Lock()
	delete(m.jobs, job.sessionID)
	if err != nil && !errors.Is(err, context.Canceled) {
		m.lastErr = err
	}
	m.mu.Unlock()

	if errors.Is(err, context.Canceled) {
		m.failInterrupted(sess)
	}
	job.finish(err)
}

func (m *Manager) runStages(ctx context.Context, sess *session.Session) error {
	ctx = services.WithSessionID(ctx, sess.ID)
	ctx = services.WithAttempt(ctx, sess.Attempt)

	for {
		next, ok := sess.NextStage()
		if !ok {
			return nil
		}
		if err := m.runStage(ctx, sess, next); err != nil {
			return err
		}
	}
}

func (m *Manager) runStage(ctx context.Context, sess *session.Session, current session.Stage) error {
	handler, ok := m.handlers[current]
	if !ok || handler == nil {
		err := fmt.Errorf("stage %s has no handler", current)
		m.failSession(ctx, sess, err.Error())
		return err
	}

	stageCtx := services.WithStage(ctx, string(current))
	stageCtx = services.WithRequestID(stageCtx, uuid.NewString())
	logger := logging.WithContext(stageCtx, m.logger)

	stageStart := time.Now()
	now := stageStart.UTC()
	sess.Status = current.RunningStatus()
	sess.ErrorMessage = ""
	sess.LastHeartbeat = &now
	if err := m.store.Update(stageCtx, sess); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}
	logger.Info("stage started", logging.String("status", string(sess.Status)))

	if err := handler.Prepare(stageCtx, sess); err != nil {
		m.handleStageFailure(stageCtx, current, sess, err)
		return err
	}
	if err := m.store.Update(stageCtx, sess); err != nil {
		return fmt.Errorf("persist stage preparation: %w", err)
	}

	execErr := m.executeWithHeartbeat(stageCtx, handler, sess)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			logger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.handleStageFailure(stageCtx, current, sess, execErr)
		return execErr
	}

	sess.Status = current.DoneStatus()
	sess.LastHeartbeat = nil
	if sess.Status == session.StatusCompleted && sess.ProgressPercent < 100 {
		sess.ProgressPercent = 100
	}
	if err := m.store.Update(stageCtx, sess); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}

	result := session.StageResult{
		SessionID:    sess.ID,
		Attempt:      sess.Attempt,
		Stage:        current,
		ArtifactPath: stageArtifact(sess, current),
		Detail:       strings.TrimSpace(sess.ProgressMessage),
	}
	if err := m.store.SetStageResult(stageCtx, result); err != nil {
		logger.Warn("failed to record stage result", logging.Error(err))
	}

	logger.Info("stage completed",
		logging.String("next_status", string(sess.Status)),
		logging.String("artifact", result.ArtifactPath),
		logging.Duration("stage_duration", time.Since(stageStart)))
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, sess *session.Session) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, sess.ID)

	execErr := handler.Execute(ctx, sess)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) handleStageFailure(ctx context.Context, current session.Stage, sess *session.Session, stageErr error) {
	logger := logging.WithContext(ctx, m.logger)

	message := strings.TrimSpace(services.Details(stageErr))
	if message == "" {
		message = fmt.Sprintf("%s stage failed", current)
	}
	logger.Error("stage failed",
		logging.String("error_message", message),
		logging.Bool("retryable", services.Retryable(stageErr)),
		logging.Error(stageErr))
	m.failSession(ctx, sess, message)
}

func (m *Manager) failSession(ctx context.Context, sess *session.Session, message string) {
	sess.SetFailed(message)
	if err := m.store.Update(ctx, sess); err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("daemon shutting down, could not persist session failure")
		} else {
			m.logger.Error("failed to persist session failure", logging.Error(err))
		}
	}
}

func (m *Manager) failInterrupted(sess *session.Session) {
	if !sess.IsProcessing() {
		return
	}
	ctx, release := context.WithTimeout(context.Background(), 5*time.Second)
	defer release()
	m.failSession(ctx, sess, session.DaemonStopReason)
}

func stageArtifact(sess *session.Session, current session.Stage) string {
	switch current {
	case session.StageScript:
		return sess.ScriptFile
	case session.StageVoice:
		return sess.AudioDir
	case session.StageVideo:
		return sess.VideoFile
	default:
		return ""
	}
}

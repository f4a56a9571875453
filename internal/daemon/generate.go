package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"slidecast/internal/api"
	"slidecast/internal/deps"
	"slidecast/internal/logging"
	"slidecast/internal/session"
	"slidecast/internal/video"
)

func (s *apiServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req api.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		s.writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if req.Transition < video.MinTransition || req.Transition > video.MaxTransition {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("transition must be between %.1f and %.1f seconds", video.MinTransition, video.MaxTransition))
		return
	}
	if !video.ValidStyle(req.Slide) {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("slide must be one of: %s", strings.Join(video.Styles(), ", ")))
		return
	}

	if missing := deps.FirstMissing(s.daemon.Dependencies()); missing != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, api.DependencyError{
			Error:    fmt.Sprintf("%s unavailable: %s", missing.Name, missing.Detail),
			Solution: missing.Solution,
		})
		return
	}
	if health, unready := s.daemon.workflow.FirstUnready(r.Context()); unready {
		s.writeJSON(w, http.StatusServiceUnavailable, api.DependencyError{
			Error:    fmt.Sprintf("%s stage unavailable: %s", health.Name, health.Detail),
			Solution: health.Solution,
		})
		return
	}

	job, err := s.daemon.workflow.StartGeneration(r.Context(), req.SessionID, req.Transition, req.Slide)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown session %q", req.SessionID))
		case errors.Is(err, session.ErrGenerationActive):
			s.writeError(w, http.StatusConflict, "generation already running for this session")
		case errors.Is(err, session.ErrNoAssets):
			s.writeError(w, http.StatusBadRequest, "session has no uploaded images")
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.log().Info("generation started",
		logging.String("session_id", req.SessionID),
		logging.Float64("transition", req.Transition),
		logging.String("slide", req.Slide),
		logging.Bool("async", req.Async))

	if req.Async {
		s.writeJSON(w, http.StatusAccepted, api.GenerateResponse{
			Status:    "accepted",
			SessionID: req.SessionID,
		})
		return
	}

	if err := job.Wait(r.Context()); err != nil {
		if r.Context().Err() != nil {
			// Client went away; the job keeps running and the result stays
			// reachable through the status endpoint.
			return
		}
		s.writeError(w, http.StatusInternalServerError, failureMessage(r, s, req.SessionID, err))
		return
	}

	sess, err := s.daemon.store.GetSession(r.Context(), req.SessionID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sess.Status != session.StatusCompleted || sess.VideoFile == "" {
		s.writeError(w, http.StatusInternalServerError, failureMessage(r, s, req.SessionID, nil))
		return
	}
	s.writeJSON(w, http.StatusOK, api.GenerateResponse{
		Status:   "success",
		VideoURL: api.VideoURL(sess.VideoFile),
		Message:  "video generated successfully",
	})
}

// failureMessage prefers the persisted session error over the raw job error
// so clients see the same text the status endpoint reports.
func failureMessage(r *http.Request, s *apiServer, sessionID string, jobErr error) string {
	if sess, err := s.daemon.store.GetSession(r.Context(), sessionID); err == nil && sess.ErrorMessage != "" {
		return sess.ErrorMessage
	}
	if jobErr != nil {
		return jobErr.Error()
	}
	return "video generation failed"
}

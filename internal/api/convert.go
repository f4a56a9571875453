package api

import (
	"path"
	"strings"
	"time"

	"slidecast/internal/session"
	"slidecast/internal/stage"
	"slidecast/internal/workflow"
)

// ClientStatus collapses the internal lifecycle onto the four states the
// upload widget understands, plus "not_found" for unknown sessions.
func ClientStatus(status session.Status) string {
	switch status {
	case session.StatusPending:
		return "pending"
	case session.StatusCompleted:
		return "complete"
	case session.StatusFailed:
		return "failed"
	case "":
		return "not_found"
	default:
		return "running"
	}
}

// VideoURL derives the public download path for a rendered video file.
func VideoURL(videoFile string) string {
	name := strings.TrimSpace(videoFile)
	if name == "" {
		return ""
	}
	return "/output/" + path.Base(name)
}

// NotFoundStatus builds the snapshot returned for unknown sessions. The
// client polls this shape and stops on "not_found", so it stays a 200-level
// payload rather than a bare error.
func NotFoundStatus(sessionID string) StatusResponse {
	return StatusResponse{
		Status:    "not_found",
		SessionID: sessionID,
		Progress:  0,
	}
}

// FromSession converts a session record and its stage results into the
// status snapshot payload.
func FromSession(sess *session.Session, results []session.StageResult) StatusResponse {
	resp := StatusResponse{
		Status:    ClientStatus(sess.Status),
		SessionID: sess.ID,
		Stage:     sess.ProgressStage,
		Progress:  sess.OverallPercent(),
		Message:   sess.ProgressMessage,
		VideoURL:  VideoURL(sess.VideoFile),
		Error:     sess.ErrorMessage,
		Stages:    stageStatuses(sess, results),
	}
	if sess.Status == session.StatusFailed {
		resp.FailedStage = failedStage(results)
	}
	return resp
}

func stageStatuses(sess *session.Session, results []session.StageResult) []StageStatus {
	completed := make(map[session.Stage]session.StageResult, len(results))
	for _, result := range results {
		completed[result.Stage] = result
	}

	statuses := make([]StageStatus, 0, len(session.StageOrder))
	failedSeen := false
	for _, current := range session.StageOrder {
		entry := StageStatus{Stage: string(current)}
		switch {
		case sess.Status == current.RunningStatus():
			entry.Status = "running"
		case sess.Status == session.StatusFailed && !failedSeen:
			if result, done := completed[current]; done {
				entry.Status = "complete"
				entry.Artifact = result.ArtifactPath
			} else {
				entry.Status = "failed"
				entry.Error = sess.ErrorMessage
				failedSeen = true
			}
		default:
			if result, done := completed[current]; done {
				entry.Status = "complete"
				entry.Artifact = result.ArtifactPath
			} else {
				entry.Status = "pending"
			}
		}
		statuses = append(statuses, entry)
	}
	return statuses
}

// failedStage names the first stage of the attempt without a recorded result.
func failedStage(results []session.StageResult) string {
	completed := make(map[session.Stage]struct{}, len(results))
	for _, result := range results {
		completed[result.Stage] = struct{}{}
	}
	for _, current := range session.StageOrder {
		if _, done := completed[current]; !done {
			return string(current)
		}
	}
	return ""
}

// Summarize converts a session record into the listing payload.
func Summarize(sess *session.Session) SessionSummary {
	return SessionSummary{
		SessionID:  sess.ID,
		Status:     string(sess.Status),
		Stage:      sess.ProgressStage,
		Progress:   sess.OverallPercent(),
		Message:    sess.ProgressMessage,
		AssetCount: sess.AssetCount,
		Attempt:    sess.Attempt,
		Error:      sess.ErrorMessage,
		VideoFile:  sess.VideoFile,
		CreatedAt:  formatTime(sess.CreatedAt),
		UpdatedAt:  formatTime(sess.UpdatedAt),
		ExpiresAt:  formatTime(sess.ExpiresAt),
	}
}

// SummarizeAll converts a list of sessions in order.
func SummarizeAll(sessions []*session.Session) []SessionSummary {
	out := make([]SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, Summarize(sess))
	}
	return out
}

// FromStatusSummary converts the orchestrator summary into the wire shape.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	stats := make(map[string]int, len(summary.SessionStats))
	for status, count := range summary.SessionStats {
		stats[string(status)] = count
	}
	health := make([]StageHealth, 0, len(summary.StageHealth))
	for _, current := range session.StageOrder {
		if entry, ok := summary.StageHealth[current]; ok {
			health = append(health, FromStageHealth(entry))
		}
	}
	return WorkflowStatus{
		Running:      summary.Running,
		ActiveJobs:   summary.ActiveJobs,
		SessionStats: stats,
		LastError:    summary.LastError,
		StageHealth:  health,
	}
}

// FromStageHealth converts one stage health report.
func FromStageHealth(health stage.Health) StageHealth {
	return StageHealth{
		Name:     health.Name,
		Ready:    health.Ready,
		Detail:   health.Detail,
		Solution: health.Solution,
	}
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format(dateTimeFormat)
}

package session

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a generation session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusScripting Status = "scripting"
	StatusScripted  Status = "scripted"
	StatusVoicing   Status = "voicing"
	StatusVoiced    Status = "voiced"
	StatusRendering Status = "rendering"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Stage identifies one step of the generation pipeline.
type Stage string

const (
	StageScript Stage = "script"
	StageVoice  Stage = "voice"
	StageVideo  Stage = "video"
)

// DaemonStopReason is the error message set when sessions are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

// HeartbeatLostReason is the error message set when a running session's heartbeat expires.
const HeartbeatLostReason = "Worker heartbeat lost"

var allStatuses = []Status{
	StatusPending,
	StatusScripting,
	StatusScripted,
	StatusVoicing,
	StatusVoiced,
	StatusRendering,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusScripting: {},
	StatusVoicing:   {},
	StatusRendering: {},
}

// StageOrder is the fixed execution order of the pipeline.
var StageOrder = []Stage{StageScript, StageVoice, StageVideo}

// RunningStatus returns the in-flight status for a stage.
func (s Stage) RunningStatus() Status {
	switch s {
	case StageScript:
		return StatusScripting
	case StageVoice:
		return StatusVoicing
	case StageVideo:
		return StatusRendering
	default:
		return StatusFailed
	}
}

// DoneStatus returns the status recorded after a stage completes. The final
// stage completes the session.
func (s Stage) DoneStatus() Status {
	switch s {
	case StageScript:
		return StatusScripted
	case StageVoice:
		return StatusVoiced
	case StageVideo:
		return StatusCompleted
	default:
		return StatusFailed
	}
}

// HealthSummary describes aggregated session counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Completed  int
}

// DatabaseHealth captures diagnostic information about the session database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	IntegrityCheck   bool
	TotalSessions    int
	Error            string
}

// Session represents a generation session persisted in SQLite.
type Session struct {
	ID              string
	Status          Status
	Attempt         int64
	Transition      float64
	Slide           string
	ScriptFile      string
	AudioDir        string
	VideoFile       string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ExpiresAt       time.Time
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	LastHeartbeat   *time.Time
	AssetCount      int
}

// Asset describes one uploaded slide image. Assets are immutable once stored.
type Asset struct {
	ID           int64
	SessionID    string
	Position     int
	FileName     string
	OriginalName string
	Path         string
	MIMEType     string
	SizeBytes    int64
	CreatedAt    time.Time
}

// StageResult records the artifact produced by one stage of one attempt.
type StageResult struct {
	ID           int64
	SessionID    string
	Attempt      int64
	Stage        Stage
	ArtifactPath string
	Detail       string
	CreatedAt    time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StageScript, StageVoice, StageVideo:
		return normalized, true
	default:
		return "", false
	}
}

// IsProcessing returns true when the status reflects an in-flight stage.
func (sess Session) IsProcessing() bool {
	return IsProcessingStatus(sess.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether a status admits no further stage work for the
// current attempt.
func IsTerminal(status Status) bool {
	return status == StatusCompleted || status == StatusFailed
}

// NextStage returns the stage that should run next for the session's current
// status, or false when the session is terminal or mid-stage.
func (sess Session) NextStage() (Stage, bool) {
	switch sess.Status {
	case StatusPending:
		return StageScript, true
	case StatusScripted:
		return StageVoice, true
	case StatusVoiced:
		return StageVideo, true
	default:
		return "", false
	}
}

// InitProgress resets progress fields for a new stage.
func (sess *Session) InitProgress(stage, message string) {
	sess.ProgressStage = stage
	sess.ProgressMessage = message
	sess.ProgressPercent = 0
	sess.ErrorMessage = ""
}

// SetProgress updates all three progress fields atomically.
func (sess *Session) SetProgress(stage, message string, percent float64) {
	sess.ProgressStage = stage
	sess.ProgressMessage = message
	sess.ProgressPercent = percent
}

// SetFailed marks the session as failed with the given error message.
// Clears heartbeat and sets progress fields appropriately.
func (sess *Session) SetFailed(message string) {
	sess.Status = StatusFailed
	sess.ErrorMessage = message
	sess.ProgressPercent = 0
	sess.ProgressMessage = message
	sess.LastHeartbeat = nil
	sess.ProgressStage = "Failed"
}

// OverallPercent maps per-stage progress onto a single 0-100 figure for the
// status API. Each stage owns an equal share of the range.
func (sess Session) OverallPercent() float64 {
	stageShare := 100.0 / float64(len(StageOrder))
	completed := 0.0
	switch sess.Status {
	case StatusCompleted:
		return 100
	case StatusFailed, StatusPending:
		return 0
	case StatusScripting:
		completed = 0
	case StatusScripted:
		return stageShare
	case StatusVoicing:
		completed = stageShare
	case StatusVoiced:
		return 2 * stageShare
	case StatusRendering:
		completed = 2 * stageShare
	}
	within := sess.ProgressPercent
	if within < 0 {
		within = 0
	}
	if within > 100 {
		within = 100
	}
	return completed + within*stageShare/100
}

package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// RejectedFile reports one upload that failed validation and why.
type RejectedFile struct {
	FileName string `json:"filename"`
	Reason   string `json:"reason"`
}

// UploadResponse answers POST /api/upload.
type UploadResponse struct {
	Status    string         `json:"status"`
	SessionID string         `json:"session_id"`
	FileCount int            `json:"file_count"`
	Message   string         `json:"message,omitempty"`
	Rejected  []RejectedFile `json:"rejected,omitempty"`
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	SessionID  string  `json:"session_id"`
	Transition float64 `json:"transition"`
	Slide      string  `json:"slide"`
	Async      bool    `json:"async,omitempty"`
}

// GenerateResponse answers POST /api/generate. VideoURL is set on synchronous
// success, SessionID on asynchronous acceptance.
type GenerateResponse struct {
	Status    string `json:"status"`
	VideoURL  string `json:"video_url,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ErrorResponse is the generic error payload.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// DependencyError is the 503 payload returned when a required external
// service or binary is missing. The client shows Solution verbatim.
type DependencyError struct {
	Error    string `json:"error"`
	Solution string `json:"solution"`
}

// StageStatus reports one pipeline stage within a status snapshot.
type StageStatus struct {
	Stage    string `json:"stage"`
	Status   string `json:"status"`
	Artifact string `json:"artifact,omitempty"`
	Error    string `json:"error,omitempty"`
}

// StatusResponse answers GET /api/status/{session_id}.
type StatusResponse struct {
	Status      string        `json:"status"`
	SessionID   string        `json:"session_id"`
	Stage       string        `json:"stage,omitempty"`
	Progress    float64       `json:"progress"`
	Message     string        `json:"message,omitempty"`
	VideoURL    string        `json:"video_url,omitempty"`
	Error       string        `json:"error,omitempty"`
	FailedStage string        `json:"failed_stage,omitempty"`
	Stages      []StageStatus `json:"stages,omitempty"`
}

// SessionSummary describes one session for listings.
type SessionSummary struct {
	SessionID  string  `json:"session_id"`
	Status     string  `json:"status"`
	Stage      string  `json:"stage,omitempty"`
	Progress   float64 `json:"progress"`
	Message    string  `json:"message,omitempty"`
	AssetCount int     `json:"asset_count"`
	Attempt    int64   `json:"attempt"`
	Error      string  `json:"error,omitempty"`
	VideoFile  string  `json:"video_file,omitempty"`
	CreatedAt  string  `json:"created_at,omitempty"`
	UpdatedAt  string  `json:"updated_at,omitempty"`
	ExpiresAt  string  `json:"expires_at,omitempty"`
}

// SessionListResponse wraps a collection of sessions.
type SessionListResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
	Solution  string `json:"solution,omitempty"`
}

// StageHealth mirrors readiness reporting for pipeline stages.
type StageHealth struct {
	Name     string `json:"name"`
	Ready    bool   `json:"ready"`
	Detail   string `json:"detail,omitempty"`
	Solution string `json:"solution,omitempty"`
}

// WorkflowStatus summarizes orchestrator state.
type WorkflowStatus struct {
	Running      bool           `json:"running"`
	ActiveJobs   int            `json:"active_jobs"`
	SessionStats map[string]int `json:"session_stats"`
	LastError    string         `json:"last_error,omitempty"`
	StageHealth  []StageHealth  `json:"stage_health"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	Version      string             `json:"version"`
	DBPath       string             `json:"db_path"`
	LockFilePath string             `json:"lock_file_path"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// HealthResponse answers GET /health.
type HealthResponse struct {
	Status       string             `json:"status"`
	Version      string             `json:"version"`
	Dependencies []DependencyStatus `json:"dependencies,omitempty"`
}

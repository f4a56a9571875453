package session

import "errors"

var (
	// ErrNotFound indicates the requested session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrCapacity indicates an upload would exceed the per-session asset ceiling.
	ErrCapacity = errors.New("session asset capacity exceeded")

	// ErrGenerationActive indicates a generation attempt is already running for
	// the session.
	ErrGenerationActive = errors.New("generation already in progress")

	// ErrNoAssets indicates generation was requested before any images were
	// uploaded.
	ErrNoAssets = errors.New("session has no assets")
)

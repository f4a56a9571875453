package stage

import (
	"context"

	"slidecast/internal/session"
)

// Handler describes the contract the workflow manager needs from each stage.
//
// Prepare validates inputs and mutates progress fields before Execute runs.
// Execute performs the work and records its artifact on the session. Both
// receive the session by pointer; the manager persists mutations after each
// call.
type Handler interface {
	Prepare(context.Context, *session.Session) error
	Execute(context.Context, *session.Session) error
	HealthCheck(context.Context) Health
}

package workflow

import "context"

// Job tracks one in-flight generation run for a session.
type Job struct {
	sessionID string
	cancel    context.CancelFunc
	done      chan struct{}
	err       error
}

func newJob(sessionID string, cancel context.CancelFunc) *Job {
	return &Job{sessionID: sessionID, cancel: cancel, done: make(chan struct{})}
}

// SessionID returns the session this job belongs to.
func (j *Job) SessionID() string {
	return j.sessionID
}

// Done is closed when the job finishes, successfully or not.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Err returns the job's terminal error. Only valid after Done is closed.
func (j *Job) Err() error {
	select {
	case <-j.done:
		return j.err
	default:
		return nil
	}
}

// Wait blocks until the job finishes or the context is cancelled.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-j.done:
		return j.err
	}
}

func (j *Job) finish(err error) {
	j.err = err
	close(j.done)
}

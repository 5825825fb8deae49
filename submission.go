package authflow

import (
	"context"
	"sync"
)

// StatusKind tags a Status.
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusSubmitting
	StatusSucceeded
	StatusFailed
)

func (k StatusKind) String() string {
	switch k {
	case StatusSubmitting:
		return "submitting"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Status is the submission state. Payload is set only when Succeeded and
// Message only when Failed.
type Status struct {
	Kind    StatusKind
	Payload any
	Message string
}

// Idle is the status before the first attempt.
func Idle() Status { return Status{Kind: StatusIdle} }

// Submitting is the status while the auth call is pending.
func Submitting() Status { return Status{Kind: StatusSubmitting} }

// Succeeded wraps the auth call result.
func Succeeded(payload any) Status { return Status{Kind: StatusSucceeded, Payload: payload} }

// Failed wraps the rejection message.
func Failed(message string) Status { return Status{Kind: StatusFailed, Message: message} }

// IsLoading reports whether the auth call is pending.
func (s Status) IsLoading() bool { return s.Kind == StatusSubmitting }

// IsResolved reports whether the status is terminal for its attempt.
func (s Status) IsResolved() bool { return s.Kind == StatusSucceeded || s.Kind == StatusFailed }

// HasPayload reports whether the attempt succeeded with a non nil result.
func (s Status) HasPayload() bool { return s.Kind == StatusSucceeded && s.Payload != nil }

func (s Status) String() string { return s.Kind.String() }

// Operation is one call into the auth collaborator.
type Operation func(ctx context.Context) (any, error)

// SubmissionController runs at most one attempt at a time and records its
// terminal status. It never retries.
type SubmissionController struct {
	mu       sync.Mutex
	status   Status
	attempts int
}

// NewSubmissionController returns an idle controller.
func NewSubmissionController() *SubmissionController {
	return &SubmissionController{status: Idle()}
}

// Status returns the current status.
func (c *SubmissionController) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// IsLoading reports whether an attempt is in flight.
func (c *SubmissionController) IsLoading() bool {
	return c.Status().IsLoading()
}

// Attempts returns how many attempts were started.
func (c *SubmissionController) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Attempt moves to Submitting, runs op and resolves to Succeeded or Failed.
// It returns ErrAttemptInFlight without calling op if another attempt is
// pending.
func (c *SubmissionController) Attempt(ctx context.Context, op Operation) (Status, error) {
	if !c.begin() {
		return Status{}, ErrAttemptInFlight
	}
	return c.run(ctx, op), nil
}

func (c *SubmissionController) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status.IsLoading() {
		return false
	}
	c.status = Submitting()
	c.attempts++
	return true
}

func (c *SubmissionController) run(ctx context.Context, op Operation) Status {
	completed := false
	defer func() {
		if !completed {
			// op panicked, leave the controller usable before unwinding
			c.mu.Lock()
			c.status = Idle()
			c.mu.Unlock()
		}
	}()

	payload, err := op(ctx)
	completed = true
	return c.finish(payload, err)
}

func (c *SubmissionController) finish(payload any, err error) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.status = Failed(err.Error())
	} else {
		c.status = Succeeded(payload)
	}
	return c.status
}

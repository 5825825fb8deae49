package authflow

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventSubmitAttempted     ActivityEventType = "form.submit.attempted"
	ActivityEventValidationFailed    ActivityEventType = "form.validation.failed"
	ActivityEventSubmissionSucceeded ActivityEventType = "form.submission.succeeded"
	ActivityEventSubmissionFailed    ActivityEventType = "form.submission.failed"
	ActivityEventSubmissionIgnored   ActivityEventType = "form.submission.ignored"
	ActivityEventSubmissionDiscarded ActivityEventType = "form.submission.discarded"
	ActivityEventNavigation          ActivityEventType = "form.navigation"
)

// ActivityEvent captures what happened to a form session.
type ActivityEvent struct {
	EventType  ActivityEventType
	Screen     ScreenKind
	SessionID  string
	Fields     []Field
	Route      RouteKey
	Message    string
	Duration   time.Duration
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// MultiSink fans an event out to every sink, returning the first error.
func MultiSink(sinks ...ActivitySink) ActivitySink {
	return ActivitySinkFunc(func(ctx context.Context, event ActivityEvent) error {
		var first error
		for _, s := range sinks {
			if s == nil {
				continue
			}
			if err := s.Record(ctx, event); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

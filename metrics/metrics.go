// Package metrics exports form activity as Prometheus metrics.
package metrics

import (
	"context"

	"github.com/goliatone/go-authflow"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeInvalid   = "invalid"
	OutcomeIgnored   = "ignored"
	OutcomeDiscarded = "discarded"
)

// Sink is an authflow.ActivitySink backed by Prometheus collectors.
type Sink struct {
	attempts    *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
	fieldErrors *prometheus.CounterVec
	navigations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewSink creates the collectors and registers them with reg.
// Panics if registration fails (following prometheus convention).
func NewSink(reg prometheus.Registerer) *Sink {
	s := &Sink{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authflow_submit_attempts_total",
				Help: "Total number of submit calls per screen",
			},
			[]string{"screen"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authflow_submit_outcomes_total",
				Help: "Total number of submit outcomes per screen",
			},
			[]string{"screen", "outcome"},
		),
		fieldErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authflow_field_errors_total",
				Help: "Total number of field validation errors",
			},
			[]string{"screen", "field"},
		),
		navigations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authflow_navigations_total",
				Help: "Total number of navigations triggered by screens",
			},
			[]string{"screen", "route"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "authflow_auth_call_duration_seconds",
				Help:    "Duration of auth service calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"screen"},
		),
	}

	if reg != nil {
		reg.MustRegister(s.attempts, s.outcomes, s.fieldErrors, s.navigations, s.duration)
	}
	return s
}

// Record implements authflow.ActivitySink.
func (s *Sink) Record(_ context.Context, event authflow.ActivityEvent) error {
	screen := string(event.Screen)

	switch event.EventType {
	case authflow.ActivityEventSubmitAttempted:
		s.attempts.WithLabelValues(screen).Inc()
	case authflow.ActivityEventValidationFailed:
		s.outcomes.WithLabelValues(screen, OutcomeInvalid).Inc()
		for _, field := range event.Fields {
			s.fieldErrors.WithLabelValues(screen, string(field)).Inc()
		}
	case authflow.ActivityEventSubmissionSucceeded:
		s.outcomes.WithLabelValues(screen, OutcomeSucceeded).Inc()
		s.duration.WithLabelValues(screen).Observe(event.Duration.Seconds())
	case authflow.ActivityEventSubmissionFailed:
		s.outcomes.WithLabelValues(screen, OutcomeFailed).Inc()
		s.duration.WithLabelValues(screen).Observe(event.Duration.Seconds())
	case authflow.ActivityEventSubmissionIgnored:
		s.outcomes.WithLabelValues(screen, OutcomeIgnored).Inc()
	case authflow.ActivityEventSubmissionDiscarded:
		s.outcomes.WithLabelValues(screen, OutcomeDiscarded).Inc()
	case authflow.ActivityEventNavigation:
		s.navigations.WithLabelValues(screen, string(event.Route)).Inc()
	}
	return nil
}

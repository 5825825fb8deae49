package authflow

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Phase is the lifecycle position of a FormSession.
type Phase string

const (
	PhasePristine        Phase = "pristine"
	PhaseSubmitAttempted Phase = "submit_attempted"
	PhaseSubmitting      Phase = "submitting"
	PhaseResolved        Phase = "resolved"
)

// Snapshot is a read only view of a session for rendering.
type Snapshot struct {
	SessionID    string
	Phase        Phase
	Values       Values
	Errors       ValidationErrors
	SubmitFailed bool
	IsLoading    bool
	Outcome      Status
}

// FieldError returns the error to display for the field. Errors are always
// computed but only surfaced after the first submit attempt.
func (s Snapshot) FieldError(f Field) (ErrorCode, bool) {
	if !s.SubmitFailed {
		return "", false
	}
	return s.Errors.Get(f)
}

// VisibleErrors returns the errors that should be rendered.
func (s Snapshot) VisibleErrors() ValidationErrors {
	if !s.SubmitFailed {
		return ValidationErrors{}
	}
	return s.Errors.Clone()
}

// Outcome is the result of one Submit call.
type Outcome struct {
	Status Status
	Errors ValidationErrors
	// Submitted is true when the auth collaborator was called.
	Submitted bool
	// Live is false when the session was closed before the attempt resolved.
	Live bool
}

// Invalid reports whether the submit stopped at validation.
func (o Outcome) Invalid() bool {
	return !o.Submitted && !o.Errors.Valid()
}

// Submitter performs the screen specific auth call with validated values.
type Submitter func(ctx context.Context, values Values) (any, error)

// ResubmitPolicy decides whether a resolved session accepts a new submit.
type ResubmitPolicy func(last Status) bool

// AlwaysResubmit accepts new submissions in every state.
func AlwaysResubmit(Status) bool { return true }

// BlockAfterPayload rejects new submissions once an attempt succeeded with a
// non nil result.
func BlockAfterPayload(last Status) bool { return !last.HasPayload() }

// FormSession holds the state of one mounted form. It is owned by a single
// screen and destroyed with Close.
type FormSession struct {
	mu           sync.Mutex
	id           string
	screen       ScreenKind
	validator    *Validator
	submit       Submitter
	controller   *SubmissionController
	resubmit     ResubmitPolicy
	logger       Logger
	values       Values
	errors       ValidationErrors
	submitFailed bool
	phase        Phase
	closed       bool
	listeners    map[uint64]func(Snapshot)
	nextListener uint64
}

// SessionOption customizes a FormSession.
type SessionOption func(*FormSession)

// WithSessionID overrides the generated session identifier.
func WithSessionID(id string) SessionOption {
	return func(s *FormSession) {
		if id != "" {
			s.id = id
		}
	}
}

// WithSessionScreen tags the session with the screen that owns it.
func WithSessionScreen(kind ScreenKind) SessionOption {
	return func(s *FormSession) {
		s.screen = kind
	}
}

// WithSessionLogger sets the session logger.
func WithSessionLogger(logger Logger) SessionOption {
	return func(s *FormSession) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithResubmitPolicy sets the policy applied after a resolved attempt.
func WithResubmitPolicy(policy ResubmitPolicy) SessionOption {
	return func(s *FormSession) {
		if policy != nil {
			s.resubmit = policy
		}
	}
}

// WithInitialValues seeds the field values.
func WithInitialValues(values Values) SessionOption {
	return func(s *FormSession) {
		for f, v := range values {
			if s.validator.Has(f) {
				s.values[f] = v
			}
		}
	}
}

// NewFormSession creates a pristine session over the validator's schema.
func NewFormSession(validator *Validator, submit Submitter, opts ...SessionOption) *FormSession {
	if validator == nil {
		panic("authflow: NewFormSession requires a validator")
	}
	if submit == nil {
		panic("authflow: NewFormSession requires a submitter")
	}

	s := &FormSession{
		id:         uuid.NewString(),
		validator:  validator,
		submit:     submit,
		controller: NewSubmissionController(),
		resubmit:   AlwaysResubmit,
		logger:     defLogger{},
		values:     Values{},
		phase:      PhasePristine,
		listeners:  map[uint64]func(Snapshot){},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.errors = s.validator.Validate(s.values)
	return s
}

// ID returns the session identifier.
func (s *FormSession) ID() string {
	return s.id
}

// Screen returns the owning screen kind, if set.
func (s *FormSession) Screen() ScreenKind {
	return s.screen
}

// Live reports whether the session is still mounted.
func (s *FormSession) Live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Attempts returns how many auth calls the session has made.
func (s *FormSession) Attempts() int {
	return s.controller.Attempts()
}

// Snapshot returns the current state.
func (s *FormSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned func removes the subscription.
func (s *FormSession) Subscribe(fn func(Snapshot)) func() {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// SetField updates one value and revalidates the form.
func (s *FormSession) SetField(field Field, value any) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return sessionClosedError(s.id)
	}
	if !s.validator.Has(field) {
		s.mu.Unlock()
		return unknownFieldError(field)
	}

	s.values[field] = value
	s.errors = s.validator.Validate(s.values)
	s.publishLocked()
	return nil
}

// Submit validates values and, when they are valid, calls the submitter.
// A nil values map submits the current field values. Validation finishes
// before the auth call starts. Calls made while an attempt is pending
// return ErrAttemptInFlight and change nothing.
func (s *FormSession) Submit(ctx context.Context, values Values) (Outcome, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Outcome{}, sessionClosedError(s.id)
	}

	last := s.controller.Status()
	if last.IsLoading() {
		s.mu.Unlock()
		s.logger.Debug("session %s: submit ignored, attempt in flight", s.id)
		return Outcome{}, attemptInFlightError(s.id)
	}
	if last.IsResolved() && !s.resubmit(last) {
		s.mu.Unlock()
		return Outcome{}, resubmitBlockedError(s.id, s.screen)
	}

	if values != nil {
		s.values = Values{}
		for f, v := range values {
			if s.validator.Has(f) {
				s.values[f] = v
			}
		}
	}

	s.submitFailed = true
	s.errors = s.validator.Validate(s.values)
	if !s.errors.Valid() {
		s.moveLocked(PhaseSubmitAttempted)
		out := Outcome{Status: last, Errors: s.errors.Clone(), Live: true}
		s.publishLocked()
		return out, nil
	}

	if !s.controller.begin() {
		s.mu.Unlock()
		return Outcome{}, attemptInFlightError(s.id)
	}
	s.moveLocked(PhaseSubmitting)
	payload := s.values.Clone()
	s.publishLocked()

	status := s.attempt(ctx, payload)

	s.mu.Lock()
	live := !s.closed
	out := Outcome{Status: status, Errors: ValidationErrors{}, Submitted: true, Live: live}
	if !live {
		s.mu.Unlock()
		s.logger.Debug("session %s: %s outcome arrived after close", s.id, status)
		return out, nil
	}
	s.moveLocked(PhaseResolved)
	s.publishLocked()
	return out, nil
}

// attempt runs the submitter. A panic puts the session back in the
// submit_attempted phase before it keeps unwinding.
func (s *FormSession) attempt(ctx context.Context, payload Values) Status {
	completed := false
	defer func() {
		if completed {
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.moveLocked(PhaseSubmitAttempted)
		s.publishLocked()
	}()

	status := s.controller.run(ctx, func(ctx context.Context) (any, error) {
		return s.submit(ctx, payload)
	})
	completed = true
	return status
}

// Close destroys the session. Pending attempts still resolve but their
// results are not applied.
func (s *FormSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.listeners = map[uint64]func(Snapshot){}
}

// moveLocked sets the phase, logging moves outside phaseTransitions.
func (s *FormSession) moveLocked(to Phase) {
	if !CanTransition(s.phase, to) {
		s.logger.Error("session %s: unexpected phase change %s -> %s", s.id, s.phase, to)
	}
	s.phase = to
}

func (s *FormSession) snapshotLocked() Snapshot {
	status := s.controller.Status()
	return Snapshot{
		SessionID:    s.id,
		Phase:        s.phase,
		Values:       s.values.Clone(),
		Errors:       s.errors.Clone(),
		SubmitFailed: s.submitFailed,
		IsLoading:    status.IsLoading(),
		Outcome:      status,
	}
}

// publishLocked releases the lock and notifies subscribers.
func (s *FormSession) publishLocked() {
	snap := s.snapshotLocked()
	listeners := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

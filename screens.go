package authflow

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ScreenKind identifies one of the authentication screens.
type ScreenKind string

const (
	ScreenSignIn         ScreenKind = "sign-in"
	ScreenSignUp         ScreenKind = "sign-up"
	ScreenForgotPassword ScreenKind = "forgot-password"
)

// ErrUnknownScreen is returned for screen kinds without a definition.
var ErrUnknownScreen = errors.New("unknown screen")

// ErrActionUnsupported is returned when a screen action is not available
// on the screen or its dependencies.
var ErrActionUnsupported = errors.New("screen action not supported")

// Fields returns the form schema of the screen.
func (k ScreenKind) Fields() []Field {
	if def, ok := screenDefinitions[k]; ok {
		return append([]Field(nil), def.fields...)
	}
	return nil
}

// Valid reports whether the kind has a definition.
func (k ScreenKind) Valid() bool {
	_, ok := screenDefinitions[k]
	return ok
}

// ScreenKinds lists the known screens.
func ScreenKinds() []ScreenKind {
	return []ScreenKind{ScreenSignIn, ScreenSignUp, ScreenForgotPassword}
}

// Dependencies are the collaborators a screen talks to.
type Dependencies struct {
	Auth      AuthService
	Notifier  Notifier
	Navigator Navigator
	// Linker is optional and only used by sign up.
	Linker AuthLinker
}

type screenDefinition struct {
	fields   []Field
	resubmit ResubmitPolicy
	call     func(ctx context.Context, auth AuthService, values Values) (any, error)
	success  func(ctx context.Context, s *Screen, payload any)
	failure  func(ctx context.Context, s *Screen, message string)
}

var screenDefinitions = map[ScreenKind]screenDefinition{
	ScreenSignIn: {
		fields:   []Field{FieldEmail, FieldPassword},
		resubmit: BlockAfterPayload,
		call: func(ctx context.Context, auth AuthService, values Values) (any, error) {
			user, err := auth.LogIn(ctx, Credentials{
				Email:    values.String(FieldEmail),
				Password: values.String(FieldPassword),
			})
			return userPayload(user, err)
		},
		success: func(ctx context.Context, s *Screen, payload any) {
			if payload != nil {
				s.navigate(ctx, s.config.Routes.Account)
			}
		},
		failure: func(_ context.Context, s *Screen, message string) {
			s.deps.Notifier.NotifyError(s.config.Messages.FailureTitle, message)
		},
	},
	ScreenSignUp: {
		fields: []Field{
			FieldEmail,
			FieldFirstName,
			FieldLastName,
			FieldPassword,
			FieldBirthDate,
		},
		resubmit: BlockAfterPayload,
		call: func(ctx context.Context, auth AuthService, values Values) (any, error) {
			birth, _ := values.Time(FieldBirthDate)
			user, err := auth.Register(ctx, Registration{
				Email:     values.String(FieldEmail),
				FirstName: values.String(FieldFirstName),
				LastName:  values.String(FieldLastName),
				Password:  values.String(FieldPassword),
				BirthDate: birth,
			})
			return userPayload(user, err)
		},
		success: func(ctx context.Context, s *Screen, payload any) {
			if payload != nil {
				s.navigate(ctx, s.config.Routes.SignUpStep2)
			}
		},
		failure: func(_ context.Context, s *Screen, message string) {
			s.deps.Notifier.NotifyError(s.config.Messages.SignUpFailureTitle, message)
		},
	},
	ScreenForgotPassword: {
		fields:   []Field{FieldEmail},
		resubmit: AlwaysResubmit,
		call: func(ctx context.Context, auth AuthService, values Values) (any, error) {
			return nil, auth.ResetPassword(ctx, values.String(FieldEmail))
		},
		success: func(_ context.Context, s *Screen, _ any) {
			s.deps.Notifier.NotifySuccess(
				s.config.Messages.ResetSuccessTitle,
				s.config.Messages.ResetSuccessMessage,
			)
		},
		failure: func(_ context.Context, s *Screen, message string) {
			s.deps.Notifier.NotifyError(s.config.Messages.FailureTitle, message)
		},
	},
}

// userPayload keeps a nil user from becoming a non nil interface value.
func userPayload(user *User, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return user, nil
}

// Screen wires a FormSession to a screen's rules, auth call and effects.
type Screen struct {
	kind     ScreenKind
	def      screenDefinition
	session  *FormSession
	deps     Dependencies
	config   Config
	logger   Logger
	activity ActivitySink
	now      func() time.Time
}

type screenOptions struct {
	config        Config
	logger        Logger
	activity      ActivitySink
	now           func() time.Time
	sessionID     string
	initialValues Values
}

// ScreenOption customizes screen construction.
type ScreenOption func(*screenOptions)

// WithScreenConfig sets routes, texts and the minimum age.
func WithScreenConfig(cfg Config) ScreenOption {
	return func(o *screenOptions) {
		o.config = cfg
	}
}

// WithScreenLogger overrides the logger used by the screen and its session.
func WithScreenLogger(logger Logger) ScreenOption {
	return func(o *screenOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithScreenActivitySink sets the sink used to publish form events.
func WithScreenActivitySink(sink ActivitySink) ScreenOption {
	return func(o *screenOptions) {
		o.activity = normalizeActivitySink(sink)
	}
}

// WithScreenClock injects a custom clock (useful for tests).
func WithScreenClock(clock func() time.Time) ScreenOption {
	return func(o *screenOptions) {
		if clock != nil {
			o.now = clock
		}
	}
}

// WithScreenSessionID overrides the generated session identifier.
func WithScreenSessionID(id string) ScreenOption {
	return func(o *screenOptions) {
		o.sessionID = id
	}
}

// WithScreenInitialValues seeds the form values.
func WithScreenInitialValues(values Values) ScreenOption {
	return func(o *screenOptions) {
		o.initialValues = values
	}
}

// NewScreen builds the screen of the given kind.
func NewScreen(kind ScreenKind, deps Dependencies, opts ...ScreenOption) (*Screen, error) {
	def, ok := screenDefinitions[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScreen, kind)
	}

	if deps.Auth == nil {
		panic("Missing AuthService in screen dependencies...")
	}
	if deps.Notifier == nil {
		panic("Missing Notifier in screen dependencies...")
	}
	if deps.Navigator == nil {
		panic("Missing Navigator in screen dependencies...")
	}

	o := &screenOptions{
		config:   DefaultConfig(),
		logger:   defLogger{},
		activity: noopActivitySink{},
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	s := &Screen{
		kind:     kind,
		def:      def,
		deps:     deps,
		config:   o.config.withDefaults(),
		logger:   o.logger,
		activity: o.activity,
		now:      o.now,
	}

	validator := NewValidator(def.fields,
		WithValidatorClock(o.now),
		WithMinimumAge(s.config.MinimumAge),
	)

	s.session = NewFormSession(validator,
		func(ctx context.Context, values Values) (any, error) {
			return def.call(ctx, deps.Auth, values)
		},
		WithSessionID(o.sessionID),
		WithSessionScreen(kind),
		WithSessionLogger(o.logger),
		WithResubmitPolicy(def.resubmit),
		WithInitialValues(o.initialValues),
	)

	return s, nil
}

// NewSignInScreen builds the sign in screen.
func NewSignInScreen(deps Dependencies, opts ...ScreenOption) *Screen {
	return mustScreen(ScreenSignIn, deps, opts...)
}

// NewSignUpScreen builds the sign up screen.
func NewSignUpScreen(deps Dependencies, opts ...ScreenOption) *Screen {
	return mustScreen(ScreenSignUp, deps, opts...)
}

// NewForgotPasswordScreen builds the forgot password screen.
func NewForgotPasswordScreen(deps Dependencies, opts ...ScreenOption) *Screen {
	return mustScreen(ScreenForgotPassword, deps, opts...)
}

func mustScreen(kind ScreenKind, deps Dependencies, opts ...ScreenOption) *Screen {
	s, err := NewScreen(kind, deps, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Kind returns the screen kind.
func (s *Screen) Kind() ScreenKind { return s.kind }

// Session returns the screen's form session.
func (s *Screen) Session() *FormSession { return s.session }

// Snapshot returns the session state for rendering.
func (s *Screen) Snapshot() Snapshot { return s.session.Snapshot() }

// SetField forwards a field change to the session.
func (s *Screen) SetField(field Field, value any) error {
	return s.session.SetField(field, value)
}

// Subscribe registers a snapshot listener on the session.
func (s *Screen) Subscribe(fn func(Snapshot)) func() {
	return s.session.Subscribe(fn)
}

// Close unmounts the screen. Late outcomes are dropped.
func (s *Screen) Close() {
	s.session.Close()
}

// Submit runs one submission and applies the screen's effect. Ignored calls
// return an error matched by IsIgnored.
func (s *Screen) Submit(ctx context.Context, values Values) (Outcome, error) {
	started := s.now()

	out, err := s.session.Submit(ctx, values)
	if errors.Is(err, ErrSessionClosed) {
		return out, err
	}
	s.record(ctx, ActivityEvent{EventType: ActivityEventSubmitAttempted, OccurredAt: started})
	if err != nil {
		if IsIgnored(err) {
			s.record(ctx, ActivityEvent{EventType: ActivityEventSubmissionIgnored, Message: err.Error()})
		}
		return out, err
	}

	if out.Invalid() {
		s.logger.Debug("%s: validation failed for %v", s.kind, out.Errors.Fields())
		s.record(ctx, ActivityEvent{
			EventType: ActivityEventValidationFailed,
			Fields:    out.Errors.Fields(),
		})
		return out, nil
	}

	elapsed := s.now().Sub(started)

	// the session may have been closed while the auth call was pending
	if !out.Live || !s.session.Live() {
		out.Live = false
		s.record(ctx, ActivityEvent{
			EventType: ActivityEventSubmissionDiscarded,
			Duration:  elapsed,
			Metadata:  map[string]any{"status": out.Status.String()},
		})
		return out, nil
	}

	switch out.Status.Kind {
	case StatusSucceeded:
		s.record(ctx, ActivityEvent{
			EventType: ActivityEventSubmissionSucceeded,
			Duration:  elapsed,
			Metadata:  map[string]any{"has_payload": out.Status.Payload != nil},
		})
		s.def.success(ctx, s, out.Status.Payload)
	case StatusFailed:
		s.logger.Info("%s: submission rejected: %s", s.kind, out.Status.Message)
		s.record(ctx, ActivityEvent{
			EventType: ActivityEventSubmissionFailed,
			Duration:  elapsed,
			Message:   out.Status.Message,
		})
		s.def.failure(ctx, s, out.Status.Message)
	}

	return out, nil
}

// ForgotPassword follows the sign in "forgot your password" link.
func (s *Screen) ForgotPassword(ctx context.Context) error {
	if s.kind != ScreenSignIn {
		return fmt.Errorf("%w: forgot password on %s", ErrActionUnsupported, s.kind)
	}
	s.navigate(ctx, s.config.Routes.ForgotPassword)
	return nil
}

// Back returns to the previous route when the navigator keeps a history.
func (s *Screen) Back() bool {
	back, ok := s.deps.Navigator.(BackNavigator)
	if !ok {
		return false
	}
	back.Back()
	return true
}

// RegisterWithProvider sends the user to an external registration page.
// Provider failures are reported through the notifier.
func (s *Screen) RegisterWithProvider(ctx context.Context) error {
	if s.kind != ScreenSignUp {
		return fmt.Errorf("%w: provider registration on %s", ErrActionUnsupported, s.kind)
	}
	if s.deps.Linker == nil {
		return fmt.Errorf("%w: no auth linker configured", ErrActionUnsupported)
	}

	link, err := s.deps.Linker.AuthLink(ctx, s.config.ProviderPurpose)
	if err != nil {
		s.logger.Error("%s: provider link: %v", s.kind, err)
		s.deps.Notifier.NotifyError("", s.config.Messages.ProviderFailure)
		return nil
	}
	if link == "" {
		return nil
	}

	redirector, ok := s.deps.Navigator.(Redirector)
	if !ok {
		return fmt.Errorf("%w: navigator cannot redirect", ErrActionUnsupported)
	}
	redirector.RedirectTo(link)
	return nil
}

func (s *Screen) navigate(ctx context.Context, route RouteKey) {
	s.record(ctx, ActivityEvent{EventType: ActivityEventNavigation, Route: route})
	s.deps.Navigator.NavigateTo(route)
}

func (s *Screen) record(ctx context.Context, event ActivityEvent) {
	event.Screen = s.kind
	event.SessionID = s.session.ID()
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}

	if err := s.activity.Record(ctx, event); err != nil {
		s.logger.Error("screen activity sink error: %v", err)
	}
}

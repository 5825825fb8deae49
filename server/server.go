// Package server hosts authentication screens over HTTP for thin UI clients.
//
// Each client mounts a screen (POST /screens/:screen), edits fields, submits
// and finally unmounts it. Every response carries the visible session state
// and the notification and navigation effects produced since the last call.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/goliatone/go-authflow"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Logger is the logging interface used by the server.
type Logger = authflow.Logger

// Routes holds the paths served by the server.
type Routes struct {
	Screens string
	Health  string
	Metrics string
}

// Server exposes screen sessions through a fiber app.
type Server struct {
	Debug  bool
	Routes Routes

	app        *fiber.App
	auth       authflow.AuthService
	linker     authflow.AuthLinker
	translator authflow.Translator
	forms      authflow.Config
	activity   authflow.ActivitySink
	metrics    http.Handler
	logger     Logger
	sessions   *Registry
	sessionTTL time.Duration
	now        func() time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithLinker enables provider registration on sign up screens.
func WithLinker(linker authflow.AuthLinker) Option {
	return func(s *Server) {
		s.linker = linker
	}
}

// WithTranslator renders validation codes into messages.
func WithTranslator(t authflow.Translator) Option {
	return func(s *Server) {
		if t != nil {
			s.translator = t
		}
	}
}

// WithFormsConfig sets the routes and texts used by every screen.
func WithFormsConfig(cfg authflow.Config) Option {
	return func(s *Server) {
		s.forms = cfg
	}
}

// WithActivitySink forwards form events, e.g. to a metrics.Sink.
func WithActivitySink(sink authflow.ActivitySink) Option {
	return func(s *Server) {
		s.activity = sink
	}
}

// WithMetricsHandler serves h on the metrics route.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the server logger.
func WithLogger(logger Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDebug dumps submitted payloads with passwords masked.
func WithDebug(debug bool) Option {
	return func(s *Server) {
		s.Debug = debug
	}
}

// WithSessionTTL expires sessions idle for longer than ttl.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.sessionTTL = ttl
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds the server and registers its routes.
func New(auth authflow.AuthService, opts ...Option) *Server {
	if auth == nil {
		panic("Missing AuthService in server...")
	}

	s := &Server{
		Routes: Routes{
			Screens: "/screens",
			Health:  "/healthz",
			Metrics: "/metrics",
		},
		auth:       auth,
		translator: authflow.TranslatorFunc(nil),
		forms:      authflow.DefaultConfig(),
		logger:     authflow.NoopLogger(),
		sessionTTL: 30 * time.Minute,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.sessions = NewRegistry(s.sessionTTL, s.now)
	s.app = fiber.New(fiber.Config{
		// params such as the screen kind outlive the request
		Immutable:             true,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.register()
	return s
}

func (s *Server) register() {
	s.app.Get(s.Routes.Health, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "sessions": s.sessions.Len()})
	})
	if s.metrics != nil {
		s.app.Get(s.Routes.Metrics, adaptor.HTTPHandler(s.metrics))
	}

	screens := s.app.Group(s.Routes.Screens)
	screens.Post("/:screen", s.mount)
	screens.Get("/:screen/:id", s.show)
	screens.Put("/:screen/:id/fields/:name", s.setField)
	screens.Post("/:screen/:id/submit", s.submit)
	screens.Post("/:screen/:id/forgot-password", s.forgotPassword)
	screens.Post("/:screen/:id/provider", s.registerWithProvider)
	screens.Post("/:screen/:id/back", s.back)
	screens.Delete("/:screen/:id", s.unmount)
}

// App returns the fiber app, e.g. for App().Test.
func (s *Server) App() *fiber.App { return s.app }

// Sessions returns the session registry.
func (s *Server) Sessions() *Registry { return s.sessions }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown stops the listener and closes every session.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	s.sessions.Close()
	return err
}

type valuesRequest struct {
	Values map[string]any `json:"values"`
}

type fieldRequest struct {
	Value any `json:"value"`
}

type fieldError struct {
	Code    authflow.ErrorCode `json:"code"`
	Message string             `json:"message"`
}

// SessionResponse is the body returned by every screen route.
type SessionResponse struct {
	ID        string                `json:"id"`
	Screen    authflow.ScreenKind   `json:"screen"`
	Phase     authflow.Phase        `json:"phase"`
	Loading   bool                  `json:"loading"`
	Status    string                `json:"status"`
	Message   string                `json:"message,omitempty"`
	User      *authflow.User        `json:"user,omitempty"`
	Values    map[string]string     `json:"values"`
	Errors    map[string]fieldError `json:"errors"`
	Submitted bool                  `json:"submitted"`
	Effects   []Effect              `json:"effects"`
}

func (s *Server) mount(c *fiber.Ctx) error {
	kind := authflow.ScreenKind(c.Params("screen"))
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", authflow.ErrUnknownScreen, kind)
	}

	var req valuesRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	initial, err := decodeValues(req.Values)
	if err != nil {
		return err
	}

	s.sessions.Sweep()

	effects := &effectRecorder{}
	deps := authflow.Dependencies{
		Auth:      s.auth,
		Notifier:  effects,
		Navigator: effects,
	}
	if s.linker != nil {
		deps.Linker = s.linker
	}

	screen, err := authflow.NewScreen(kind, deps,
		authflow.WithScreenConfig(s.forms),
		authflow.WithScreenLogger(s.logger),
		authflow.WithScreenActivitySink(s.activity),
		authflow.WithScreenClock(s.now),
		authflow.WithScreenInitialValues(initial),
	)
	if err != nil {
		return err
	}

	e := &entry{screen: screen, effects: effects}
	s.sessions.add(e)
	s.logger.Debug("mounted %s session %s", kind, screen.Session().ID())

	return c.Status(fiber.StatusCreated).JSON(s.respond(e, false))
}

func (s *Server) show(c *fiber.Ctx) error {
	e, err := s.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(s.respond(e, false))
}

func (s *Server) setField(c *fiber.Ctx) error {
	e, err := s.lookup(c)
	if err != nil {
		return err
	}

	field, ok := authflow.ParseField(c.Params("name"))
	if !ok {
		return oops.Code("FORM_UNKNOWN_FIELD").
			With("field", c.Params("name")).
			Wrap(authflow.ErrUnknownField)
	}

	var req fieldRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	value, err := decodeValue(field, req.Value)
	if err != nil {
		return err
	}

	if err := e.screen.SetField(field, value); err != nil {
		return err
	}
	return c.JSON(s.respond(e, false))
}

func (s *Server) submit(c *fiber.Ctx) error {
	e, err := s.lookup(c)
	if err != nil {
		return err
	}

	var req valuesRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	values, err := decodeValues(req.Values)
	if err != nil {
		return err
	}

	if s.Debug {
		s.logger.Debug("submit %s %s: %s", e.screen.Kind(), e.screen.Session().ID(), print.MaybePrettyJSON(masked(values)))
	}

	out, err := e.screen.Submit(c.UserContext(), values)
	if err != nil {
		return err
	}

	return c.JSON(s.respond(e, out.Submitted))
}

func (s *Server) forgotPassword(c *fiber.Ctx) error {
	e, err := s.lookup(c)
	if err != nil {
		return err
	}
	if err := e.screen.ForgotPassword(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(s.respond(e, false))
}

func (s *Server) registerWithProvider(c *fiber.Ctx) error {
	e, err := s.lookup(c)
	if err != nil {
		return err
	}
	if err := e.screen.RegisterWithProvider(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(s.respond(e, false))
}

func (s *Server) back(c *fiber.Ctx) error {
	e, err := s.lookup(c)
	if err != nil {
		return err
	}
	e.screen.Back()
	return c.JSON(s.respond(e, false))
}

func (s *Server) unmount(c *fiber.Ctx) error {
	if _, err := s.lookup(c); err != nil {
		return err
	}
	s.sessions.Remove(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) lookup(c *fiber.Ctx) (*entry, error) {
	id := c.Params("id")
	if uuid.Validate(id) != nil {
		return nil, ErrSessionNotFound
	}
	e, err := s.sessions.get(id)
	if err != nil {
		return nil, err
	}
	if string(e.screen.Kind()) != c.Params("screen") {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

func (s *Server) respond(e *entry, submitted bool) SessionResponse {
	snap := e.screen.Snapshot()

	resp := SessionResponse{
		ID:        snap.SessionID,
		Screen:    e.screen.Kind(),
		Phase:     snap.Phase,
		Loading:   snap.IsLoading,
		Status:    snap.Outcome.String(),
		Message:   snap.Outcome.Message,
		Values:    map[string]string{},
		Errors:    map[string]fieldError{},
		Submitted: submitted,
		Effects:   e.effects.drain(),
	}
	if user, ok := snap.Outcome.Payload.(*authflow.User); ok {
		resp.User = user
	}

	for f, v := range snap.Values {
		if f == authflow.FieldPassword {
			continue
		}
		resp.Values[string(f)] = encodeValue(v)
	}
	for f, code := range snap.VisibleErrors() {
		resp.Errors[string(f)] = fieldError{
			Code:    code,
			Message: s.translator.Translate(authflow.MessageKey(code)),
		}
	}
	return resp
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	body := errorResponse{Error: err.Error()}
	if oe, ok := oops.AsOops(err); ok {
		body.Code = fmt.Sprint(oe.Code())
	}

	if status >= fiber.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Method(), c.Path(), err)
	} else {
		s.logger.Debug("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(body)
}

func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, authflow.ErrUnknownScreen):
		return fiber.StatusNotFound
	case errors.Is(err, authflow.ErrSessionClosed):
		return fiber.StatusGone
	case authflow.IsIgnored(err):
		return fiber.StatusConflict
	case errors.Is(err, authflow.ErrUnknownField):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, authflow.ErrActionUnsupported):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func decodeBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(c.Body(), out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	return nil
}

// decodeValues maps wire names to fields. A nil map means "use the current
// values" and is kept nil.
func decodeValues(raw map[string]any) (authflow.Values, error) {
	if raw == nil {
		return nil, nil
	}
	values := authflow.Values{}
	for name, v := range raw {
		field, ok := authflow.ParseField(name)
		if !ok {
			return nil, oops.Code("FORM_UNKNOWN_FIELD").With("field", name).Wrap(authflow.ErrUnknownField)
		}
		value, err := decodeValue(field, v)
		if err != nil {
			return nil, err
		}
		values[field] = value
	}
	return values, nil
}

func decodeValue(field authflow.Field, v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	default:
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("field %s must be a string", field))
	}
}

func encodeValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case time.Time:
		return val.Format(authflow.DateLayout)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func masked(values authflow.Values) map[string]string {
	out := map[string]string{}
	for f, v := range values {
		if f == authflow.FieldPassword {
			out[string(f)] = "********"
			continue
		}
		out[string(f)] = encodeValue(v)
	}
	return out
}

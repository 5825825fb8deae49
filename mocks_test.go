package authflow_test

import (
	"context"
	"sync"

	"github.com/goliatone/go-authflow"
	"github.com/stretchr/testify/mock"
)

// MockAuthService implements authflow.AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) LogIn(ctx context.Context, creds authflow.Credentials) (*authflow.User, error) {
	args := m.Called(ctx, creds)
	user, _ := args.Get(0).(*authflow.User)
	return user, args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, reg authflow.Registration) (*authflow.User, error) {
	args := m.Called(ctx, reg)
	user, _ := args.Get(0).(*authflow.User)
	return user, args.Error(1)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

type notification struct {
	kind    string
	title   string
	message string
}

// recordingNotifier captures notifications
type recordingNotifier struct {
	mu    sync.Mutex
	calls []notification
}

func (n *recordingNotifier) NotifySuccess(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{kind: "success", title: title, message: message})
}

func (n *recordingNotifier) NotifyError(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{kind: "error", title: title, message: message})
}

func (n *recordingNotifier) all() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.calls...)
}

// recordingNavigator captures navigation, redirects and back calls
type recordingNavigator struct {
	mu        sync.Mutex
	routes    []authflow.RouteKey
	redirects []string
	backs     int
}

func (n *recordingNavigator) NavigateTo(route authflow.RouteKey) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *recordingNavigator) RedirectTo(url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects = append(n.redirects, url)
}

func (n *recordingNavigator) Back() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.backs++
}

func (n *recordingNavigator) all() []authflow.RouteKey {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]authflow.RouteKey(nil), n.routes...)
}

// plainNavigator only implements authflow.Navigator
type plainNavigator struct {
	routes []authflow.RouteKey
}

func (n *plainNavigator) NavigateTo(route authflow.RouteKey) {
	n.routes = append(n.routes, route)
}

type linkerFunc func(ctx context.Context, purpose string) (string, error)

func (f linkerFunc) AuthLink(ctx context.Context, purpose string) (string, error) {
	return f(ctx, purpose)
}

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

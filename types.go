package authflow

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// User is the account returned by the auth service on log in or register.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Credentials is the sign in payload
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign up payload
type Registration struct {
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Password  string    `json:"password"`
	BirthDate time.Time `json:"birth_date"`
}

// AuthService is the external authentication collaborator. Implementations
// return an error carrying a human readable message on rejection. A nil user
// with a nil error is a valid response.
type AuthService interface {
	LogIn(ctx context.Context, creds Credentials) (*User, error)
	Register(ctx context.Context, reg Registration) (*User, error)
	ResetPassword(ctx context.Context, email string) error
}

// Notifier shows transient notifications. Calls are fire and forget.
type Notifier interface {
	NotifySuccess(title, message string)
	NotifyError(title, message string)
}

// RouteKey identifies a destination in the host application's route table.
type RouteKey string

const (
	RouteAccount        RouteKey = "account"
	RouteSignUpStep2    RouteKey = "signUpStep2"
	RouteForgotPassword RouteKey = "forgotPassword"
)

// Navigator moves the user to another route. Calls are fire and forget.
type Navigator interface {
	NavigateTo(route RouteKey)
}

// BackNavigator is implemented by navigators that keep a history.
type BackNavigator interface {
	Back()
}

// Redirector is implemented by navigators that can leave the application,
// for example to an OAuth consent page.
type Redirector interface {
	RedirectTo(url string)
}

// AuthLinker produces external provider links, e.g. for social sign up.
type AuthLinker interface {
	AuthLink(ctx context.Context, purpose string) (string, error)
}

// Translator resolves catalog keys to display strings.
type Translator interface {
	Translate(key string) string
}

// TranslatorFunc adapts a function to the Translator interface.
type TranslatorFunc func(key string) string

// Translate implements Translator.
func (f TranslatorFunc) Translate(key string) string {
	if f == nil {
		return key
	}
	return f(key)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHFLOW "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHFLOW "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHFLOW "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NoopLogger discards everything.
func NoopLogger() Logger {
	return noopLogger{}
}

// Package logging builds the structured logger used by the authflow binary
// and adapts it to the printf style authflow.Logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup creates a configured slog.Logger.
// format: "json" or "text" (defaults to "json" if empty)
// If w is nil, writes to os.Stderr.
func Setup(service, format, level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With(slog.String("service", service))
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Adapter exposes a slog.Logger through the authflow.Logger interface.
type Adapter struct {
	logger *slog.Logger
}

// NewAdapter wraps logger. A nil logger uses slog.Default.
func NewAdapter(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{logger: logger}
}

// Named returns an adapter that tags records with a component name.
func (a *Adapter) Named(component string) *Adapter {
	return &Adapter{logger: a.logger.With(slog.String("component", component))}
}

func (a *Adapter) Debug(format string, args ...any) {
	a.logger.Debug(fmt.Sprintf(format, args...))
}

func (a *Adapter) Info(format string, args ...any) {
	a.logger.Info(fmt.Sprintf(format, args...))
}

func (a *Adapter) Error(format string, args ...any) {
	a.logger.Error(fmt.Sprintf(format, args...))
}

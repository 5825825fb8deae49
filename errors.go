package authflow

import (
	"errors"

	"github.com/samber/oops"
)

const (
	codeSessionClosed   = "FORM_SESSION_CLOSED"
	codeAttemptInFlight = "FORM_ATTEMPT_IN_FLIGHT"
	codeResubmitBlocked = "FORM_RESUBMIT_BLOCKED"
	codeUnknownField    = "FORM_UNKNOWN_FIELD"
)

// ErrSessionClosed is returned when a destroyed session receives input.
var ErrSessionClosed = errors.New("form session is closed")

// ErrAttemptInFlight is returned when submit is called while a submission
// for the same session is still pending. The call has no effect.
var ErrAttemptInFlight = errors.New("submission already in flight")

// ErrResubmitBlocked is returned when the screen does not accept another
// submission after a successful one.
var ErrResubmitBlocked = errors.New("form already submitted")

// ErrUnknownField is returned when setting a field outside the form schema.
var ErrUnknownField = errors.New("unknown form field")

// IsIgnored reports whether err means a submit call was a no-op.
func IsIgnored(err error) bool {
	return errors.Is(err, ErrAttemptInFlight) || errors.Is(err, ErrResubmitBlocked)
}

func sessionClosedError(id string) error {
	return oops.Code(codeSessionClosed).With("session", id).Wrap(ErrSessionClosed)
}

func attemptInFlightError(id string) error {
	return oops.Code(codeAttemptInFlight).With("session", id).Wrap(ErrAttemptInFlight)
}

func resubmitBlockedError(id string, screen ScreenKind) error {
	return oops.Code(codeResubmitBlocked).
		With("session", id).
		With("screen", string(screen)).
		Wrap(ErrResubmitBlocked)
}

func unknownFieldError(field Field) error {
	return oops.Code(codeUnknownField).With("field", string(field)).Wrap(ErrUnknownField)
}

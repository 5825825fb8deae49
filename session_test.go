package authflow_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/goliatone/go-authflow"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newSignInSession(submit authflow.Submitter, opts ...authflow.SessionOption) *authflow.FormSession {
	v := authflow.NewValidator(authflow.ScreenSignIn.Fields())
	opts = append([]authflow.SessionOption{authflow.WithSessionLogger(testLogger{})}, opts...)
	return authflow.NewFormSession(v, submit, opts...)
}

func TestFormSessionStartsPristine(t *testing.T) {
	s := newSignInSession(func(context.Context, authflow.Values) (any, error) { return nil, nil })

	snap := s.Snapshot()
	assert.Equal(t, authflow.PhasePristine, snap.Phase)
	assert.False(t, snap.SubmitFailed)
	assert.False(t, snap.IsLoading)
	assert.NotEmpty(t, snap.SessionID)
	// errors are computed but not surfaced yet
	assert.Len(t, snap.Errors, 2)
	_, visible := snap.FieldError(authflow.FieldEmail)
	assert.False(t, visible)
	assert.Empty(t, snap.VisibleErrors())
}

func TestFormSessionInvalidSubmitSkipsNetwork(t *testing.T) {
	calls := 0
	s := newSignInSession(func(context.Context, authflow.Values) (any, error) {
		calls++
		return nil, nil
	})

	out, err := s.Submit(context.Background(), authflow.Values{authflow.FieldEmail: "a@b"})
	require.NoError(t, err)
	assert.True(t, out.Invalid())
	assert.False(t, out.Submitted)
	assert.Zero(t, calls)

	snap := s.Snapshot()
	assert.Equal(t, authflow.PhaseSubmitAttempted, snap.Phase)
	assert.True(t, snap.SubmitFailed)
	code, ok := snap.FieldError(authflow.FieldEmail)
	require.True(t, ok)
	assert.Equal(t, authflow.CodeInvalidEmail, code)
	code, ok = snap.FieldError(authflow.FieldPassword)
	require.True(t, ok)
	assert.Equal(t, authflow.CodeRequired, code)
}

func TestFormSessionErrorsRecomputedFresh(t *testing.T) {
	s := newSignInSession(func(context.Context, authflow.Values) (any, error) { return nil, nil })

	_, err := s.Submit(context.Background(), authflow.Values{})
	require.NoError(t, err)
	require.Len(t, s.Snapshot().Errors, 2)

	require.NoError(t, s.SetField(authflow.FieldEmail, "u@x.com"))
	snap := s.Snapshot()
	assert.Equal(t, authflow.ValidationErrors{authflow.FieldPassword: authflow.CodeRequired}, snap.Errors)
	assert.True(t, snap.SubmitFailed, "submitFailed stays set for the session lifetime")
}

func TestFormSessionSubmitsCurrentValues(t *testing.T) {
	var got authflow.Values
	s := newSignInSession(func(_ context.Context, values authflow.Values) (any, error) {
		got = values
		return "user", nil
	})

	require.NoError(t, s.SetField(authflow.FieldEmail, "u@x.com"))
	require.NoError(t, s.SetField(authflow.FieldPassword, "p"))

	out, err := s.Submit(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, out.Submitted)
	assert.True(t, out.Live)
	assert.Equal(t, authflow.Succeeded("user"), out.Status)
	assert.Equal(t, "u@x.com", got.String(authflow.FieldEmail))

	snap := s.Snapshot()
	assert.Equal(t, authflow.PhaseResolved, snap.Phase)
	assert.False(t, snap.IsLoading)
	assert.Equal(t, "p", snap.Values.String(authflow.FieldPassword))
}

func TestFormSessionDropsFieldsOutsideSchema(t *testing.T) {
	s := newSignInSession(func(context.Context, authflow.Values) (any, error) { return nil, nil })

	_, err := s.Submit(context.Background(), authflow.Values{
		authflow.FieldEmail:     "u@x.com",
		authflow.FieldPassword:  "p",
		authflow.FieldFirstName: "Ada",
	})
	require.NoError(t, err)
	_, ok := s.Snapshot().Values[authflow.FieldFirstName]
	assert.False(t, ok)

	err = s.SetField(authflow.FieldBirthDate, "2000-01-01")
	require.ErrorIs(t, err, authflow.ErrUnknownField)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "FORM_UNKNOWN_FIELD", oopsErr.Code())
}

func TestFormSessionIgnoresSubmitWhileSubmitting(t *testing.T) {
	defer goleak.VerifyNone(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	calls := 0
	s := newSignInSession(func(context.Context, authflow.Values) (any, error) {
		calls++
		close(entered)
		<-release
		return "user", nil
	})

	values := authflow.Values{authflow.FieldEmail: "u@x.com", authflow.FieldPassword: "p"}
	done := make(chan authflow.Outcome)
	go func() {
		out, _ := s.Submit(context.Background(), values)
		done <- out
	}()

	<-entered
	assert.True(t, s.Snapshot().IsLoading)
	assert.Equal(t, authflow.PhaseSubmitting, s.Snapshot().Phase)

	_, err := s.Submit(context.Background(), values)
	require.ErrorIs(t, err, authflow.ErrAttemptInFlight)
	assert.True(t, authflow.IsIgnored(err))

	close(release)
	out := <-done
	assert.Equal(t, authflow.StatusSucceeded, out.Status.Kind)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, s.Attempts())
}

func TestFormSessionResubmitPolicy(t *testing.T) {
	s := newSignInSession(
		func(context.Context, authflow.Values) (any, error) { return "user", nil },
		authflow.WithResubmitPolicy(authflow.BlockAfterPayload),
		authflow.WithSessionScreen(authflow.ScreenSignIn),
	)
	values := authflow.Values{authflow.FieldEmail: "u@x.com", authflow.FieldPassword: "p"}

	_, err := s.Submit(context.Background(), values)
	require.NoError(t, err)

	_, err = s.Submit(context.Background(), values)
	require.ErrorIs(t, err, authflow.ErrResubmitBlocked)
	assert.Equal(t, 1, s.Attempts())
}

func TestFormSessionAllowsResubmitAfterFailure(t *testing.T) {
	attempt := 0
	s := newSignInSession(
		func(context.Context, authflow.Values) (any, error) {
			attempt++
			if attempt == 1 {
				return nil, errors.New("bad credentials")
			}
			return "user", nil
		},
		authflow.WithResubmitPolicy(authflow.BlockAfterPayload),
	)
	values := authflow.Values{authflow.FieldEmail: "u@x.com", authflow.FieldPassword: "p"}

	out, err := s.Submit(context.Background(), values)
	require.NoError(t, err)
	assert.Equal(t, authflow.Failed("bad credentials"), out.Status)

	out, err = s.Submit(context.Background(), values)
	require.NoError(t, err)
	assert.Equal(t, authflow.Succeeded("user"), out.Status)
}

type errorLogger struct {
	testLogger
	errors []string
}

func (l *errorLogger) Error(format string, args ...any) {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func TestFormSessionRecoversPhaseAfterPanic(t *testing.T) {
	logger := &errorLogger{}
	attempt := 0
	s := newSignInSession(
		func(context.Context, authflow.Values) (any, error) {
			attempt++
			if attempt == 1 {
				panic("malformed response")
			}
			return "user", nil
		},
		authflow.WithSessionLogger(logger),
	)
	values := authflow.Values{authflow.FieldEmail: "u@x.com", authflow.FieldPassword: "p"}

	assert.PanicsWithValue(t, "malformed response", func() {
		_, _ = s.Submit(context.Background(), values)
	})

	snap := s.Snapshot()
	assert.Equal(t, authflow.PhaseSubmitAttempted, snap.Phase)
	assert.False(t, snap.IsLoading)
	assert.Equal(t, authflow.StatusIdle, snap.Outcome.Kind)

	out, err := s.Submit(context.Background(), values)
	require.NoError(t, err)
	assert.Equal(t, authflow.Succeeded("user"), out.Status)
	assert.Equal(t, authflow.PhaseResolved, s.Snapshot().Phase)
	assert.Empty(t, logger.errors)
}

func TestFormSessionSubscribe(t *testing.T) {
	s := newSignInSession(func(context.Context, authflow.Values) (any, error) { return "user", nil })

	var phases []authflow.Phase
	var loading []bool
	unsubscribe := s.Subscribe(func(snap authflow.Snapshot) {
		phases = append(phases, snap.Phase)
		loading = append(loading, snap.IsLoading)
	})

	_, err := s.Submit(context.Background(), authflow.Values{authflow.FieldEmail: "u@x.com", authflow.FieldPassword: "p"})
	require.NoError(t, err)
	assert.Equal(t, []authflow.Phase{authflow.PhaseSubmitting, authflow.PhaseResolved}, phases)
	assert.Equal(t, []bool{true, false}, loading)

	unsubscribe()
	require.NoError(t, s.SetField(authflow.FieldEmail, "v@x.com"))
	assert.Len(t, phases, 2)
}

func TestFormSessionCloseDropsLateOutcome(t *testing.T) {
	defer goleak.VerifyNone(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	s := newSignInSession(func(context.Context, authflow.Values) (any, error) {
		close(entered)
		<-release
		return "user", nil
	})

	notified := 0
	s.Subscribe(func(authflow.Snapshot) { notified++ })

	done := make(chan authflow.Outcome)
	go func() {
		out, _ := s.Submit(context.Background(), authflow.Values{authflow.FieldEmail: "u@x.com", authflow.FieldPassword: "p"})
		done <- out
	}()

	<-entered
	s.Close()
	assert.False(t, s.Live())
	close(release)

	out := <-done
	assert.False(t, out.Live)
	assert.Equal(t, 1, notified, "only the submitting transition was published")

	_, err := s.Submit(context.Background(), nil)
	require.ErrorIs(t, err, authflow.ErrSessionClosed)
	require.ErrorIs(t, s.SetField(authflow.FieldEmail, "x"), authflow.ErrSessionClosed)
}

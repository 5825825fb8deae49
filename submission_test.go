package authflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-authflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestSubmissionControllerSucceeds(t *testing.T) {
	c := authflow.NewSubmissionController()
	require.Equal(t, authflow.StatusIdle, c.Status().Kind)

	var loadingDuringCall bool
	status, err := c.Attempt(context.Background(), func(context.Context) (any, error) {
		loadingDuringCall = c.IsLoading()
		return "user", nil
	})

	require.NoError(t, err)
	assert.True(t, loadingDuringCall)
	assert.False(t, c.IsLoading())
	assert.Equal(t, authflow.Succeeded("user"), status)
	assert.Equal(t, 1, c.Attempts())
}

func TestSubmissionControllerFails(t *testing.T) {
	c := authflow.NewSubmissionController()

	status, err := c.Attempt(context.Background(), func(context.Context) (any, error) {
		return nil, errors.New("bad credentials")
	})

	require.NoError(t, err)
	assert.Equal(t, authflow.StatusFailed, status.Kind)
	assert.Equal(t, "bad credentials", status.Message)
	assert.False(t, c.IsLoading())

	// failed attempts can be retried by the caller
	status, err = c.Attempt(context.Background(), func(context.Context) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, authflow.StatusSucceeded, status.Kind)
	assert.False(t, status.HasPayload())
	assert.Equal(t, 2, c.Attempts())
}

func TestSubmissionControllerRejectsConcurrentAttempt(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := authflow.NewSubmissionController()
	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan authflow.Status)

	go func() {
		status, _ := c.Attempt(context.Background(), func(context.Context) (any, error) {
			close(entered)
			<-release
			return "ok", nil
		})
		done <- status
	}()

	<-entered
	calls := 0
	_, err := c.Attempt(context.Background(), func(context.Context) (any, error) {
		calls++
		return nil, nil
	})
	require.ErrorIs(t, err, authflow.ErrAttemptInFlight)
	assert.Zero(t, calls)
	assert.True(t, c.IsLoading())

	close(release)
	status := <-done
	assert.Equal(t, authflow.Succeeded("ok"), status)
	assert.Equal(t, 1, c.Attempts())
}

func TestSubmissionControllerResetsAfterPanic(t *testing.T) {
	c := authflow.NewSubmissionController()

	assert.Panics(t, func() {
		_, _ = c.Attempt(context.Background(), func(context.Context) (any, error) {
			panic("malformed response")
		})
	})

	assert.Equal(t, authflow.StatusIdle, c.Status().Kind)
	_, err := c.Attempt(context.Background(), func(context.Context) (any, error) { return nil, nil })
	assert.NoError(t, err)
}

func TestStatusKindString(t *testing.T) {
	assert.Equal(t, "idle", authflow.Idle().String())
	assert.Equal(t, "submitting", authflow.Submitting().String())
	assert.Equal(t, "succeeded", authflow.Succeeded(nil).String())
	assert.Equal(t, "failed", authflow.Failed("x").String())
}

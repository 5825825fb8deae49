package activitymap_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-authflow"
	"github.com/goliatone/go-authflow/activitymap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	event := authflow.ActivityEvent{
		EventType:  authflow.ActivityEventValidationFailed,
		Screen:     authflow.ScreenSignUp,
		SessionID:  "session-1",
		Fields:     []authflow.Field{authflow.FieldBirthDate, authflow.FieldEmail},
		Metadata:   map[string]any{"client": "web"},
		OccurredAt: ts,
	}

	out := activitymap.Normalize(event)

	assert.Equal(t, "session-1", out.ActorID)
	assert.Equal(t, string(authflow.ActivityEventValidationFailed), out.Verb)
	assert.Equal(t, "form", out.ObjectType)
	assert.Equal(t, "sign-up", out.ObjectID)
	assert.Equal(t, "authflow", out.Channel)
	assert.True(t, out.OccurredAt.Equal(ts))
	assert.Equal(t, "web", out.Metadata["client"])
	assert.Equal(t, []string{"birthDate", "email"}, out.Metadata[activitymap.MetadataKeyFields])

	assert.Len(t, event.Metadata, 1, "source metadata must stay unchanged")
}

func TestNormalizeOptionOverrides(t *testing.T) {
	t.Parallel()

	event := authflow.ActivityEvent{
		EventType: authflow.ActivityEventSubmissionFailed,
		Screen:    authflow.ScreenSignIn,
		Message:   "Invalid credentials",
		Duration:  1500 * time.Millisecond,
	}

	out := activitymap.Normalize(event,
		activitymap.WithDefaultChannel(" audit "),
		activitymap.WithDefaultObjectType("screen"),
		activitymap.WithActorFallback("system"),
		activitymap.WithObjectIDResolver(func(e authflow.ActivityEvent) string {
			return "screen:" + string(e.Screen)
		}),
	)

	assert.Equal(t, "system", out.ActorID)
	assert.Equal(t, "audit", out.Channel)
	assert.Equal(t, "screen", out.ObjectType)
	assert.Equal(t, "screen:sign-in", out.ObjectID)
	assert.Equal(t, "Invalid credentials", out.Metadata[activitymap.MetadataKeyMessage])
	assert.Equal(t, int64(1500), out.Metadata[activitymap.MetadataKeyDurationMS])
	assert.False(t, out.OccurredAt.IsZero())
}

func TestNormalizeNavigationWithoutMetadata(t *testing.T) {
	t.Parallel()

	out := activitymap.Normalize(authflow.ActivityEvent{
		EventType: authflow.ActivityEventNavigation,
		Route:     authflow.RouteAccount,
	})
	assert.Equal(t, map[string]any{activitymap.MetadataKeyRoute: "account"}, out.Metadata)

	out = activitymap.Normalize(authflow.ActivityEvent{EventType: authflow.ActivityEventSubmitAttempted})
	assert.Nil(t, out.Metadata)
}

type lineLogger struct {
	lines []string
}

func (l *lineLogger) Debug(string, ...any) {}
func (l *lineLogger) Error(string, ...any) {}
func (l *lineLogger) Info(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func TestLogSink(t *testing.T) {
	logger := &lineLogger{}
	sink := activitymap.LogSink(logger)

	err := sink.Record(context.Background(), authflow.ActivityEvent{
		EventType:  authflow.ActivityEventNavigation,
		Screen:     authflow.ScreenSignIn,
		SessionID:  "session-2",
		Route:      authflow.RouteAccount,
		OccurredAt: time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, logger.lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(logger.lines[0][len("activity "):]), &record))
	assert.Equal(t, "session-2", record["actor_id"])
	assert.Equal(t, "form.navigation", record["verb"])
	assert.Equal(t, "sign-in", record["object_id"])
}

package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamonnguyen/pomomo-focus"
)

var testNotification = pomomo.Notification{
	Title: "Reminder: write report",
	Body:  "It has been 2 hours since the last reminder.",
	URL:   "/tasks/task-1",
}

func TestMulti_DeliversToAll(t *testing.T) {
	var got []string
	sink := func(name string, err error) Notifier {
		return NotifierFunc(func(_ context.Context, n pomomo.Notification) error {
			got = append(got, name+":"+n.Title)
			return err
		})
	}

	m := Multi{
		sink("a", nil),
		sink("b", errors.New("discord unavailable")),
		sink("c", errors.New("log closed")),
	}
	err := m.Notify(context.Background(), testNotification)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "discord unavailable")
	assert.Contains(t, err.Error(), "log closed")
	assert.Equal(t, []string{
		"a:Reminder: write report",
		"b:Reminder: write report",
		"c:Reminder: write report",
	}, got)
}

func TestMulti_NoErrors(t *testing.T) {
	ok := NotifierFunc(func(context.Context, pomomo.Notification) error { return nil })
	assert.NoError(t, Multi{ok, ok}.Notify(context.Background(), testNotification))
	assert.NoError(t, Multi{}.Notify(context.Background(), testNotification))
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(log.New(&buf))

	require.NoError(t, n.Notify(context.Background(), testNotification))
	assert.Contains(t, buf.String(), "Reminder: write report")
	assert.Contains(t, buf.String(), "/tasks/task-1")
}

func TestParsePermission(t *testing.T) {
	for in, want := range map[string]Permission{
		"granted": PermissionGranted,
		"denied":  PermissionDenied,
		"default": PermissionDefault,
		"":        PermissionDefault,
	} {
		got, err := ParsePermission(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParsePermission("maybe")
	assert.Error(t, err)
	assert.True(t, PermissionGranted.Granted())
	assert.False(t, PermissionDefault.Granted())
}

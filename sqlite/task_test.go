package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamonnguyen/pomomo-focus"
)

func TestTaskRepo_CRUD(t *testing.T) {
	_, dbGetter := openTestDB(t)
	repo := NewTaskRepo(dbGetter, testLogger())
	ctx := context.Background()

	due := time.Date(2026, 10, 20, 17, 0, 0, 0, time.UTC)
	inserted, err := repo.InsertTask(ctx, pomomo.TaskRecord{
		Title:    "write report",
		DueDate:  &due,
		Reminder: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, inserted.ID)
	assert.Equal(t, pomomo.TaskPending, inserted.Status)

	got, err := repo.GetTask(ctx, inserted.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))
	assert.True(t, got.Reminder)

	update := got.TaskRecord
	update.Status = pomomo.TaskCompleted
	update.Reminder = false
	_, err = repo.UpdateTask(ctx, got.ID, update)
	require.NoError(t, err)

	pending, err := repo.GetTasksByStatus(ctx, pomomo.TaskPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	completed, err := repo.GetTasksByStatus(ctx, pomomo.TaskCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.False(t, completed[0].Reminder)

	_, err = repo.DeleteTask(ctx, got.ID)
	require.NoError(t, err)
	_, err = repo.GetTask(ctx, got.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskRepo_InsertRequiresTitle(t *testing.T) {
	_, dbGetter := openTestDB(t)
	repo := NewTaskRepo(dbGetter, testLogger())

	_, err := repo.InsertTask(context.Background(), pomomo.TaskRecord{})
	assert.Error(t, err)
}

func TestSessionRepo_InsertAndList(t *testing.T) {
	_, dbGetter := openTestDB(t)
	repo := NewSessionRepo(dbGetter, testLogger())
	ctx := context.Background()

	_, err := repo.InsertSession(ctx, pomomo.SessionRecord{
		TaskID:          "task-1",
		Type:            pomomo.WorkSession,
		Phase:           pomomo.WorkPhase,
		DurationMinutes: 25,
	})
	require.NoError(t, err)

	sessions, err := repo.GetSessionsByTask(ctx, "task-1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, pomomo.WorkPhase, sessions[0].Phase)
	assert.Equal(t, 25, sessions[0].DurationMinutes)
}

func TestPreferencesRepo_DefaultsAndUpdate(t *testing.T) {
	_, dbGetter := openTestDB(t)
	repo := NewPreferencesRepo(dbGetter, testLogger())
	ctx := context.Background()

	prefs, err := repo.GetPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, pomomo.DefaultPreferences(), prefs)

	settings := pomomo.PomodoroSettings{WorkDuration: 50, ShortBreakDuration: 10, LongBreakDuration: 30, LongBreakAfter: 3}
	_, err = repo.UpdatePomodoroSettings(ctx, settings)
	require.NoError(t, err)

	ns := pomomo.DefaultNotificationSettings()
	ns.DailyEnabled = true
	ns.DailyHour = 7
	_, err = repo.UpdateNotificationSettings(ctx, ns)
	require.NoError(t, err)

	prefs, err = repo.GetPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings, prefs.Pomodoro)
	assert.Equal(t, ns, prefs.Notifications)

	_, err = repo.UpdatePomodoroSettings(ctx, pomomo.PomodoroSettings{})
	var verr pomomo.ValidationError
	assert.ErrorAs(t, err, &verr)
}

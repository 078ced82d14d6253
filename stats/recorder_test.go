package stats

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Thiht/transactor"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamonnguyen/pomomo-focus"
)

// mockSessionRepo is a mock implementation of pomomo.SessionRepo
type mockSessionRepo struct {
	insertSessionFunc func(context.Context, pomomo.SessionRecord) (pomomo.ExistingSessionRecord, error)
}

func (m *mockSessionRepo) InsertSession(ctx context.Context, sr pomomo.SessionRecord) (pomomo.ExistingSessionRecord, error) {
	if m.insertSessionFunc != nil {
		return m.insertSessionFunc(ctx, sr)
	}
	return pomomo.ExistingSessionRecord{}, nil
}

func (m *mockSessionRepo) GetSessionsByTask(ctx context.Context, id pomomo.TaskID) ([]pomomo.ExistingSessionRecord, error) {
	return nil, nil
}

// mockStatsRepo counts calls per counter
type mockStatsRepo struct {
	completedTasks, pomodoros, focusMinutes int
	err                                     error
}

func (m *mockStatsRepo) IncrementCompletedTasks(context.Context, time.Time) error {
	m.completedTasks++
	return m.err
}

func (m *mockStatsRepo) IncrementPomodoroCount(context.Context, time.Time) error {
	m.pomodoros++
	return m.err
}

func (m *mockStatsRepo) AddFocusTime(_ context.Context, _ time.Time, minutes int) error {
	m.focusMinutes += minutes
	return m.err
}

func (m *mockStatsRepo) GetStatistics(context.Context, string) (pomomo.DailyStatistics, error) {
	return pomomo.DailyStatistics{}, nil
}

func (m *mockStatsRepo) ListStatistics(context.Context, string, string) ([]pomomo.DailyStatistics, error) {
	return nil, nil
}

// mockTransactor is a mock implementation of transactor.Transactor
type mockTransactor struct {
	withinTransactionFunc func(context.Context, func(context.Context) error) error
}

func (m *mockTransactor) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	if m.withinTransactionFunc != nil {
		return m.withinTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

var _ transactor.Transactor = (*mockTransactor)(nil)

func TestRecorder_HandleSessionComplete(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 19, 11, 0, 0, 0, time.UTC)
	tests := []struct {
		name          string
		event         pomomo.SessionComplete
		wantPomodoros int
		wantFocus     int
	}{
		{
			name:          "work session",
			event:         pomomo.SessionComplete{Type: pomomo.WorkSession, Phase: pomomo.WorkPhase, Duration: 25, TaskID: "task-1"},
			wantPomodoros: 1,
			wantFocus:     25,
		},
		{
			name:  "short break",
			event: pomomo.SessionComplete{Type: pomomo.BreakSession, Phase: pomomo.ShortBreakPhase, Duration: 5},
		},
		{
			name:  "long break",
			event: pomomo.SessionComplete{Type: pomomo.BreakSession, Phase: pomomo.LongBreakPhase, Duration: 15},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var inserted pomomo.SessionRecord
			sessions := &mockSessionRepo{
				insertSessionFunc: func(_ context.Context, sr pomomo.SessionRecord) (pomomo.ExistingSessionRecord, error) {
					inserted = sr
					return pomomo.ExistingSessionRecord{SessionRecord: sr}, nil
				},
			}
			counters := &mockStatsRepo{}
			r := NewRecorder(sessions, counters, &mockTransactor{}, log.New(io.Discard))
			r.now = func() time.Time { return now }

			require.NoError(t, r.HandleSessionComplete(context.Background(), tt.event))
			assert.Equal(t, pomomo.SessionRecord{
				TaskID:          tt.event.TaskID,
				Type:            tt.event.Type,
				Phase:           tt.event.Phase,
				DurationMinutes: tt.event.Duration,
				CompletedAt:     now,
			}, inserted)
			assert.Equal(t, tt.wantPomodoros, counters.pomodoros)
			assert.Equal(t, tt.wantFocus, counters.focusMinutes)
			assert.Zero(t, counters.completedTasks)
		})
	}
}

func TestRecorder_HandleSessionCompleteError(t *testing.T) {
	t.Parallel()

	counters := &mockStatsRepo{err: errors.New("database is locked")}
	var rolledBack bool
	tx := &mockTransactor{
		withinTransactionFunc: func(ctx context.Context, fn func(context.Context) error) error {
			err := fn(ctx)
			rolledBack = err != nil
			return err
		},
	}
	r := NewRecorder(&mockSessionRepo{}, counters, tx, log.New(io.Discard))

	err := r.HandleSessionComplete(context.Background(), pomomo.SessionComplete{Type: pomomo.WorkSession, Duration: 25})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "increment pomodoro count")
	assert.True(t, rolledBack)
	assert.Zero(t, counters.focusMinutes, "stops at first failure")
}

func TestRecorder_HandleTaskCompleted(t *testing.T) {
	t.Parallel()

	counters := &mockStatsRepo{}
	r := NewRecorder(&mockSessionRepo{}, counters, &mockTransactor{}, log.New(io.Discard))

	require.NoError(t, r.HandleTaskCompleted(context.Background(), "task-1"))
	assert.Equal(t, 1, counters.completedTasks)
	assert.Zero(t, counters.pomodoros)
}

func TestRecorder_SessionCompleteHandlerLogsErrors(t *testing.T) {
	t.Parallel()

	sessions := &mockSessionRepo{
		insertSessionFunc: func(context.Context, pomomo.SessionRecord) (pomomo.ExistingSessionRecord, error) {
			return pomomo.ExistingSessionRecord{}, errors.New("disk full")
		},
	}
	r := NewRecorder(sessions, &mockStatsRepo{}, &mockTransactor{}, log.New(io.Discard))

	assert.NotPanics(t, func() {
		r.SessionCompleteHandler()(context.Background(), pomomo.SessionComplete{Type: pomomo.WorkSession, Duration: 25})
	})
}

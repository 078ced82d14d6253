// Package stats records finished sessions and completed tasks into the daily
// counters.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/Thiht/transactor"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomomo-focus"
)

type Recorder struct {
	sessions pomomo.SessionRepo
	stats    pomomo.StatsRepo
	tx       transactor.Transactor
	now      func() time.Time
	l        *log.Logger
}

func NewRecorder(sessions pomomo.SessionRepo, stats pomomo.StatsRepo, tx transactor.Transactor, logger *log.Logger) *Recorder {
	return &Recorder{
		sessions: sessions,
		stats:    stats,
		tx:       tx,
		now:      time.Now,
		l:        logger,
	}
}

// HandleSessionComplete stores the finished phase. Work phases also count
// towards the day's pomodoros and focus time.
func (r *Recorder) HandleSessionComplete(ctx context.Context, e pomomo.SessionComplete) error {
	at := r.now()
	err := r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := r.sessions.InsertSession(ctx, pomomo.SessionRecord{
			TaskID:          e.TaskID,
			Type:            e.Type,
			Phase:           e.Phase,
			DurationMinutes: e.Duration,
			CompletedAt:     at,
		})
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		if e.Type != pomomo.WorkSession {
			return nil
		}
		if err := r.stats.IncrementPomodoroCount(ctx, at); err != nil {
			return fmt.Errorf("increment pomodoro count: %w", err)
		}
		if err := r.stats.AddFocusTime(ctx, at, e.Duration); err != nil {
			return fmt.Errorf("add focus time: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.l.Debug("recorded session", "type", e.Type, "phase", e.Phase, "minutes", e.Duration, "taskID", e.TaskID)
	return nil
}

func (r *Recorder) HandleTaskCompleted(ctx context.Context, id pomomo.TaskID) error {
	if err := r.stats.IncrementCompletedTasks(ctx, r.now()); err != nil {
		return fmt.Errorf("increment completed tasks: %w", err)
	}
	r.l.Debug("recorded completed task", "taskID", id)
	return nil
}

// SessionCompleteHandler adapts the recorder to the session engine's hook,
// logging failures.
func (r *Recorder) SessionCompleteHandler() func(context.Context, pomomo.SessionComplete) {
	return func(ctx context.Context, e pomomo.SessionComplete) {
		if err := r.HandleSessionComplete(ctx, e); err != nil {
			r.l.Error("failed to record session", "err", err)
		}
	}
}

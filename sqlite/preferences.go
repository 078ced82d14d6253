package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomomo-focus"
)

const (
	SelectPreferences = "SELECT work_duration, short_break_duration, long_break_duration, long_break_after, deadline_enabled, minutes_before, daily_enabled, daily_hour, daily_minute, interval_enabled, interval_hours FROM preferences WHERE id = 1"
	UpsertPreferences = `INSERT INTO preferences (id, work_duration, short_break_duration, long_break_duration, long_break_after, deadline_enabled, minutes_before, daily_enabled, daily_hour, daily_minute, interval_enabled, interval_hours, updated_at)
VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	work_duration = excluded.work_duration,
	short_break_duration = excluded.short_break_duration,
	long_break_duration = excluded.long_break_duration,
	long_break_after = excluded.long_break_after,
	deadline_enabled = excluded.deadline_enabled,
	minutes_before = excluded.minutes_before,
	daily_enabled = excluded.daily_enabled,
	daily_hour = excluded.daily_hour,
	daily_minute = excluded.daily_minute,
	interval_enabled = excluded.interval_enabled,
	interval_hours = excluded.interval_hours,
	updated_at = excluded.updated_at`
)

type preferencesRepo struct {
	dbGetter txStdLib.DBGetter
	l        *log.Logger
}

func NewPreferencesRepo(dbGetter txStdLib.DBGetter, logger *log.Logger) *preferencesRepo {
	return &preferencesRepo{
		dbGetter: dbGetter,
		l:        logger,
	}
}

// GetPreferences falls back to defaults until preferences are first saved.
func (r *preferencesRepo) GetPreferences(ctx context.Context) (pomomo.Preferences, error) {
	var p pomomo.Preferences
	row := r.dbGetter(ctx).QueryRowContext(ctx, SelectPreferences)
	err := row.Scan(
		&p.Pomodoro.WorkDuration,
		&p.Pomodoro.ShortBreakDuration,
		&p.Pomodoro.LongBreakDuration,
		&p.Pomodoro.LongBreakAfter,
		&p.Notifications.DeadlineEnabled,
		&p.Notifications.MinutesBefore,
		&p.Notifications.DailyEnabled,
		&p.Notifications.DailyHour,
		&p.Notifications.DailyMinute,
		&p.Notifications.IntervalEnabled,
		&p.Notifications.IntervalHours,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return pomomo.DefaultPreferences(), nil
	}
	if err != nil {
		return pomomo.Preferences{}, err
	}
	return p, nil
}

func (r *preferencesRepo) UpdatePomodoroSettings(ctx context.Context, settings pomomo.PomodoroSettings) (pomomo.Preferences, error) {
	if err := settings.Validate(); err != nil {
		return pomomo.Preferences{}, err
	}
	p, err := r.GetPreferences(ctx)
	if err != nil {
		return pomomo.Preferences{}, err
	}
	p.Pomodoro = settings
	return p, r.put(ctx, p)
}

func (r *preferencesRepo) UpdateNotificationSettings(ctx context.Context, settings pomomo.NotificationSettings) (pomomo.Preferences, error) {
	if err := settings.Validate(); err != nil {
		return pomomo.Preferences{}, err
	}
	p, err := r.GetPreferences(ctx)
	if err != nil {
		return pomomo.Preferences{}, err
	}
	p.Notifications = settings
	return p, r.put(ctx, p)
}

func (r *preferencesRepo) put(ctx context.Context, p pomomo.Preferences) error {
	args := []any{
		p.Pomodoro.WorkDuration,
		p.Pomodoro.ShortBreakDuration,
		p.Pomodoro.LongBreakDuration,
		p.Pomodoro.LongBreakAfter,
		boolToInt(p.Notifications.DeadlineEnabled),
		p.Notifications.MinutesBefore,
		boolToInt(p.Notifications.DailyEnabled),
		p.Notifications.DailyHour,
		p.Notifications.DailyMinute,
		boolToInt(p.Notifications.IntervalEnabled),
		p.Notifications.IntervalHours,
		time.Now().Unix(),
	}
	r.l.Debug("saving preferences", "query", UpsertPreferences, "args", args)
	_, err := r.dbGetter(ctx).ExecContext(ctx, UpsertPreferences, args...)
	return err
}

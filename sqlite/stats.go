package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomomo-focus"
)

const SelectAllStatistics = "SELECT date, completed_tasks, pomodoro_count, total_focus_time FROM statistics"

// statsRepo keeps one aggregate row per calendar day. Each counter update is
// a single upsert statement, so concurrent increments never lose a write.
type statsRepo struct {
	dbGetter txStdLib.DBGetter
	loc      *time.Location
	l        *log.Logger
}

// NewStatsRepo keys rows by the calendar day of loc.
func NewStatsRepo(dbGetter txStdLib.DBGetter, loc *time.Location, logger *log.Logger) *statsRepo {
	if loc == nil {
		loc = time.Local
	}
	return &statsRepo{
		dbGetter: dbGetter,
		loc:      loc,
		l:        logger,
	}
}

func (r *statsRepo) IncrementCompletedTasks(ctx context.Context, at time.Time) error {
	return r.add(ctx, at, "completed_tasks", 1)
}

func (r *statsRepo) IncrementPomodoroCount(ctx context.Context, at time.Time) error {
	return r.add(ctx, at, "pomodoro_count", 1)
}

func (r *statsRepo) AddFocusTime(ctx context.Context, at time.Time, minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("focus time must not be negative, got %d", minutes)
	}
	return r.add(ctx, at, "total_focus_time", minutes)
}

// column is always one of the fixed counter names above.
func (r *statsRepo) add(ctx context.Context, at time.Time, column string, delta int) error {
	date := pomomo.DateKey(at.In(r.loc))
	query := fmt.Sprintf(
		"INSERT INTO statistics (date, %[1]s) VALUES (?, ?) ON CONFLICT(date) DO UPDATE SET %[1]s = %[1]s + excluded.%[1]s",
		column,
	)
	r.l.Debug("updating statistics", "query", query, "date", date, "delta", delta)
	_, err := r.dbGetter(ctx).ExecContext(ctx, query, date, delta)
	return err
}

// GetStatistics returns a zeroed row for days without activity.
func (r *statsRepo) GetStatistics(ctx context.Context, date string) (pomomo.DailyStatistics, error) {
	row := r.dbGetter(ctx).QueryRowContext(ctx, SelectAllStatistics+" WHERE date = ?", date)
	s, err := extractStatistics(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pomomo.DailyStatistics{Date: date}, nil
	}
	return s, err
}

func (r *statsRepo) ListStatistics(ctx context.Context, from, to string) ([]pomomo.DailyStatistics, error) {
	query := SelectAllStatistics + " WHERE date BETWEEN ? AND ? ORDER BY date"
	r.l.Debug("listing statistics", "query", query, "from", from, "to", to)
	rows, err := r.dbGetter(ctx).QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint

	var stats []pomomo.DailyStatistics
	for rows.Next() {
		s, err := extractStatistics(rows)
		if err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

func extractStatistics(s scannable) (pomomo.DailyStatistics, error) {
	var d pomomo.DailyStatistics
	err := s.Scan(&d.Date, &d.CompletedTasks, &d.PomodoroCount, &d.TotalFocusTime)
	return d, err
}

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

const (
	SelectAllNotifications = "SELECT task_id, type, title, body, scheduled_time, url, recurrence_kind, recurrence_hour, recurrence_minute, recurrence_hours, version, updated_at FROM scheduled_notifications"
	UpsertNotification     = `INSERT INTO scheduled_notifications (task_id, type, title, body, scheduled_time, url, recurrence_kind, recurrence_hour, recurrence_minute, recurrence_hours, version, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
ON CONFLICT(task_id, type) DO UPDATE SET
	title = excluded.title,
	body = excluded.body,
	scheduled_time = excluded.scheduled_time,
	url = excluded.url,
	recurrence_kind = excluded.recurrence_kind,
	recurrence_hour = excluded.recurrence_hour,
	recurrence_minute = excluded.recurrence_minute,
	recurrence_hours = excluded.recurrence_hours,
	version = scheduled_notifications.version + 1,
	updated_at = excluded.updated_at`
)

type notificationEntity struct {
	TaskID           string
	Type             string
	Title            string
	Body             string
	ScheduledTime    int64
	URL              string
	RecurrenceKind   sql.NullString
	RecurrenceHour   int
	RecurrenceMinute int
	RecurrenceHours  int
	Version          int64
	UpdatedAt        int64
}

// notificationRepo is the notification schedule store, one row per
// (task_id, type).
type notificationRepo struct {
	dbGetter txStdLib.DBGetter
	l        *log.Logger
}

func NewNotificationRepo(dbGetter txStdLib.DBGetter, logger *log.Logger) *notificationRepo {
	return &notificationRepo{
		dbGetter: dbGetter,
		l:        logger,
	}
}

func (r *notificationRepo) UpsertNotification(ctx context.Context, n pomomo.ScheduledNotification) (pomomo.ExistingScheduledNotification, error) {
	if n.TaskID == "" || n.Type == "" {
		return pomomo.ExistingScheduledNotification{}, fmt.Errorf("provide required fields 'TaskID' and 'Type'")
	}

	e := mapToNotificationEntity(pomomo.ExistingScheduledNotification{ScheduledNotification: n})
	e.UpdatedAt = time.Now().Unix()
	args := []any{
		e.TaskID,
		e.Type,
		e.Title,
		e.Body,
		e.ScheduledTime,
		e.URL,
		e.RecurrenceKind,
		e.RecurrenceHour,
		e.RecurrenceMinute,
		e.RecurrenceHours,
		e.UpdatedAt,
	}
	r.l.Debug("upserting scheduled notification", "query", UpsertNotification, "args", args)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, UpsertNotification, args...); err != nil {
		return pomomo.ExistingScheduledNotification{}, err
	}

	return r.GetNotification(ctx, n.TaskID, n.Type)
}

func (r *notificationRepo) DeleteNotification(ctx context.Context, taskID pomomo.TaskID, t pomomo.NotificationType) (bool, error) {
	query := "DELETE FROM scheduled_notifications WHERE task_id = ? AND type = ?"
	r.l.Debug("deleting scheduled notification", "query", query, "taskID", taskID, "type", t)
	res, err := r.dbGetter(ctx).ExecContext(ctx, query, taskID, t)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *notificationRepo) DeleteTaskNotifications(ctx context.Context, taskID pomomo.TaskID) (int, error) {
	query := "DELETE FROM scheduled_notifications WHERE task_id = ?"
	r.l.Debug("deleting task notifications", "query", query, "taskID", taskID)
	res, err := r.dbGetter(ctx).ExecContext(ctx, query, taskID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *notificationRepo) GetNotification(ctx context.Context, taskID pomomo.TaskID, t pomomo.NotificationType) (pomomo.ExistingScheduledNotification, error) {
	if taskID == "" || t == "" {
		return pomomo.ExistingScheduledNotification{}, fmt.Errorf("provide taskID and type")
	}

	row := r.dbGetter(ctx).QueryRowContext(
		ctx,
		fmt.Sprintf("%s WHERE task_id = ? AND type = ?", SelectAllNotifications), taskID, t,
	)
	return extractNotification(row)
}

func (r *notificationRepo) ListNotifications(ctx context.Context) ([]pomomo.ExistingScheduledNotification, error) {
	query := SelectAllNotifications + " ORDER BY scheduled_time"
	r.l.Debug("listing scheduled notifications", "query", query)
	return r.queryNotifications(ctx, query)
}

// ListDueNotifications returns entries with scheduled_time <= now.
func (r *notificationRepo) ListDueNotifications(ctx context.Context, now time.Time) ([]pomomo.ExistingScheduledNotification, error) {
	query := SelectAllNotifications + " WHERE scheduled_time <= ? ORDER BY scheduled_time"
	r.l.Debug("listing due notifications", "query", query, "now", now.UnixMilli())
	return r.queryNotifications(ctx, query, now.UnixMilli())
}

func (r *notificationRepo) queryNotifications(ctx context.Context, query string, args ...any) ([]pomomo.ExistingScheduledNotification, error) {
	rows, err := r.dbGetter(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint

	var notifications []pomomo.ExistingScheduledNotification
	for rows.Next() {
		n, err := extractNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepo) DeleteNotificationIfVersion(ctx context.Context, taskID pomomo.TaskID, t pomomo.NotificationType, version int64) (bool, error) {
	query := "DELETE FROM scheduled_notifications WHERE task_id = ? AND type = ? AND version = ?"
	r.l.Debug("consuming scheduled notification", "query", query, "taskID", taskID, "type", t, "version", version)
	res, err := r.dbGetter(ctx).ExecContext(ctx, query, taskID, t, version)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *notificationRepo) RescheduleNotificationIfVersion(ctx context.Context, taskID pomomo.TaskID, t pomomo.NotificationType, version int64, scheduledTime int64) (bool, error) {
	query := "UPDATE scheduled_notifications SET scheduled_time = ?, version = version + 1, updated_at = ? WHERE task_id = ? AND type = ? AND version = ?"
	args := []any{scheduledTime, time.Now().Unix(), taskID, t, version}
	r.l.Debug("rescheduling notification", "query", query, "args", args)
	res, err := r.dbGetter(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func extractNotification(s scannable) (pomomo.ExistingScheduledNotification, error) {
	var e notificationEntity
	if err := s.Scan(&e.TaskID, &e.Type, &e.Title, &e.Body, &e.ScheduledTime, &e.URL, &e.RecurrenceKind, &e.RecurrenceHour, &e.RecurrenceMinute, &e.RecurrenceHours, &e.Version, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pomomo.ExistingScheduledNotification{}, ErrNotFound
		}
		return pomomo.ExistingScheduledNotification{}, err
	}
	return mapToExistingNotification(e), nil
}

func mapToNotificationEntity(n pomomo.ExistingScheduledNotification) notificationEntity {
	e := notificationEntity{
		TaskID:        string(n.TaskID),
		Type:          string(n.Type),
		Title:         n.Title,
		Body:          n.Body,
		ScheduledTime: n.ScheduledTime,
		URL:           n.URL,
		Version:       n.Version,
		UpdatedAt:     n.UpdatedAt.Unix(),
	}
	if rec := n.Recurrence; rec != nil {
		e.RecurrenceKind = sql.NullString{String: string(rec.Kind), Valid: true}
		e.RecurrenceHour = rec.Hour
		e.RecurrenceMinute = rec.Minute
		e.RecurrenceHours = rec.Hours
	}
	return e
}

func mapToExistingNotification(e notificationEntity) pomomo.ExistingScheduledNotification {
	n := pomomo.ExistingScheduledNotification{
		ScheduledNotification: pomomo.ScheduledNotification{
			TaskID:        pomomo.TaskID(e.TaskID),
			Type:          pomomo.NotificationType(e.Type),
			Title:         e.Title,
			Body:          e.Body,
			ScheduledTime: e.ScheduledTime,
			URL:           e.URL,
		},
		Version:   e.Version,
		UpdatedAt: time.Unix(e.UpdatedAt, 0),
	}
	if e.RecurrenceKind.Valid {
		n.Recurrence = &pomomo.Recurrence{
			Kind:   pomomo.RecurrenceKind(e.RecurrenceKind.String),
			Hour:   e.RecurrenceHour,
			Minute: e.RecurrenceMinute,
			Hours:  e.RecurrenceHours,
		}
	}
	return n
}

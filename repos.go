package pomomo

import (
	"context"
	"time"
)

type TaskRepo interface {
	InsertTask(context.Context, TaskRecord) (ExistingTaskRecord, error)
	UpdateTask(context.Context, TaskID, TaskRecord) (ExistingTaskRecord, error)
	DeleteTask(context.Context, TaskID) (ExistingTaskRecord, error)
	GetTask(context.Context, TaskID) (ExistingTaskRecord, error)
	GetTasksByStatus(context.Context, ...TaskStatus) ([]ExistingTaskRecord, error)
}

type PreferencesRepo interface {
	GetPreferences(context.Context) (Preferences, error)
	UpdatePomodoroSettings(context.Context, PomodoroSettings) (Preferences, error)
	UpdateNotificationSettings(context.Context, NotificationSettings) (Preferences, error)
}

type SessionRepo interface {
	InsertSession(context.Context, SessionRecord) (ExistingSessionRecord, error)
	GetSessionsByTask(context.Context, TaskID) ([]ExistingSessionRecord, error)
}

type StatsRepo interface {
	IncrementCompletedTasks(context.Context, time.Time) error
	IncrementPomodoroCount(context.Context, time.Time) error
	AddFocusTime(ctx context.Context, at time.Time, minutes int) error
	GetStatistics(ctx context.Context, date string) (DailyStatistics, error)
	ListStatistics(ctx context.Context, from, to string) ([]DailyStatistics, error)
}

// NotificationRepo is the notification schedule store.
type NotificationRepo interface {
	UpsertNotification(context.Context, ScheduledNotification) (ExistingScheduledNotification, error)
	DeleteNotification(context.Context, TaskID, NotificationType) (bool, error)
	DeleteTaskNotifications(context.Context, TaskID) (int, error)
	GetNotification(context.Context, TaskID, NotificationType) (ExistingScheduledNotification, error)
	ListNotifications(context.Context) ([]ExistingScheduledNotification, error)
	ListDueNotifications(context.Context, time.Time) ([]ExistingScheduledNotification, error)

	// version-checked writes used by the dispatcher
	DeleteNotificationIfVersion(ctx context.Context, id TaskID, t NotificationType, version int64) (bool, error)
	RescheduleNotificationIfVersion(ctx context.Context, id TaskID, t NotificationType, version int64, scheduledTime int64) (bool, error)
}

// Package reminder writes task reminders into the notification schedule.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Thiht/transactor"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomomo-focus"
)

// ErrNotScheduled is returned, wrapped with the reason, when a reminder is
// skipped without touching the store.
var ErrNotScheduled = errors.New("reminder not scheduled")

const (
	minIntervalHours = 1
	maxIntervalHours = 168
	maxMinutesBefore = 7 * 24 * 60
)

// Signaler wakes the dispatcher after the schedule changes.
type Signaler interface {
	Signal(context.Context) error
}

type SignalFunc func(context.Context) error

func (f SignalFunc) Signal(ctx context.Context) error {
	return f(ctx)
}

type Option func(*Scheduler)

func WithSignaler(signaler Signaler) Option {
	return func(s *Scheduler) {
		s.signaler = signaler
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithLocation sets the zone daily reminders are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		s.loc = loc
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Scheduler) {
		s.l = l
	}
}

type Scheduler struct {
	repo     pomomo.NotificationRepo
	tx       transactor.Transactor
	signaler Signaler
	now      func() time.Time
	loc      *time.Location
	l        *log.Logger
}

func NewScheduler(repo pomomo.NotificationRepo, tx transactor.Transactor, opts ...Option) *Scheduler {
	s := &Scheduler{
		repo: repo,
		tx:   tx,
		now:  time.Now,
		loc:  time.Local,
		l:    log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleDeadlineReminder fires minutesBefore minutes ahead of the task's
// due date, replacing the task's previous deadline reminder.
func (s *Scheduler) ScheduleDeadlineReminder(ctx context.Context, task pomomo.ExistingTaskRecord, minutesBefore int) (pomomo.ExistingScheduledNotification, error) {
	n, err := s.deadline(task, minutesBefore)
	if err != nil {
		return pomomo.ExistingScheduledNotification{}, err
	}
	return s.schedule(ctx, n)
}

// ScheduleDailyReminder fires at the next hour:minute and then every day.
func (s *Scheduler) ScheduleDailyReminder(ctx context.Context, task pomomo.ExistingTaskRecord, hour, minute int) (pomomo.ExistingScheduledNotification, error) {
	n, err := s.daily(task, hour, minute)
	if err != nil {
		return pomomo.ExistingScheduledNotification{}, err
	}
	return s.schedule(ctx, n)
}

// ScheduleIntervalReminder fires every hours hours, starting hours from now.
func (s *Scheduler) ScheduleIntervalReminder(ctx context.Context, task pomomo.ExistingTaskRecord, hours int) (pomomo.ExistingScheduledNotification, error) {
	n, err := s.interval(task, hours)
	if err != nil {
		return pomomo.ExistingScheduledNotification{}, err
	}
	return s.schedule(ctx, n)
}

// CancelAll removes every reminder for the task and returns how many existed.
func (s *Scheduler) CancelAll(ctx context.Context, id pomomo.TaskID) (int, error) {
	var cnt int
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		cnt, err = s.repo.DeleteTaskNotifications(ctx, id)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("cancel reminders for task %s: %w", id, err)
	}
	s.l.Debug("cancelled reminders", "taskID", id, "count", cnt)
	return cnt, nil
}

func (s *Scheduler) CancelType(ctx context.Context, id pomomo.TaskID, t pomomo.NotificationType) (bool, error) {
	var deleted bool
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = s.repo.DeleteNotification(ctx, id, t)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("cancel %s reminder for task %s: %w", t, id, err)
	}
	return deleted, nil
}

// Sync brings the task's reminders in line with settings. Tasks that are
// completed or have reminders turned off lose all of them.
func (s *Scheduler) Sync(ctx context.Context, task pomomo.ExistingTaskRecord, settings pomomo.NotificationSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	var scheduled int
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if !task.Reminder || task.Status == pomomo.TaskCompleted {
			_, err := s.repo.DeleteTaskNotifications(ctx, task.ID)
			return err
		}

		wanted := make(map[pomomo.NotificationType]pomomo.ScheduledNotification)
		if settings.DeadlineEnabled {
			if n, err := s.deadline(task, settings.MinutesBefore); err == nil {
				wanted[pomomo.DeadlineNotification] = n
			} else if !errors.Is(err, ErrNotScheduled) {
				return err
			}
		}
		if settings.DailyEnabled {
			n, err := s.daily(task, settings.DailyHour, settings.DailyMinute)
			if err != nil {
				return err
			}
			wanted[pomomo.DailyNotification] = n
		}
		if settings.IntervalEnabled {
			n, err := s.interval(task, settings.IntervalHours)
			if err != nil {
				return err
			}
			wanted[pomomo.IntervalNotification] = n
		}

		for _, t := range []pomomo.NotificationType{pomomo.DeadlineNotification, pomomo.DailyNotification, pomomo.IntervalNotification} {
			n, ok := wanted[t]
			if !ok {
				if _, err := s.repo.DeleteNotification(ctx, task.ID, t); err != nil {
					return err
				}
				continue
			}
			if _, err := s.repo.UpsertNotification(ctx, n); err != nil {
				return err
			}
			scheduled++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sync reminders for task %s: %w", task.ID, err)
	}

	s.l.Debug("synced reminders", "taskID", task.ID, "scheduled", scheduled)
	if scheduled > 0 {
		s.signal(ctx)
	}
	return nil
}

func (s *Scheduler) schedule(ctx context.Context, n pomomo.ScheduledNotification) (pomomo.ExistingScheduledNotification, error) {
	var stored pomomo.ExistingScheduledNotification
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		stored, err = s.repo.UpsertNotification(ctx, n)
		return err
	})
	if err != nil {
		return pomomo.ExistingScheduledNotification{}, fmt.Errorf("store %s reminder for task %s: %w", n.Type, n.TaskID, err)
	}

	s.l.Info("scheduled reminder", "taskID", n.TaskID, "type", n.Type, "at", n.FireTime().In(s.loc))
	s.signal(ctx)
	return stored, nil
}

func (s *Scheduler) signal(ctx context.Context) {
	if s.signaler == nil {
		return
	}
	if err := s.signaler.Signal(ctx); err != nil {
		s.l.Debug("dispatcher not signalled", "err", err)
	}
}

func (s *Scheduler) deadline(task pomomo.ExistingTaskRecord, minutesBefore int) (pomomo.ScheduledNotification, error) {
	if err := checkEnabled(task); err != nil {
		return pomomo.ScheduledNotification{}, err
	}
	if task.DueDate == nil {
		return pomomo.ScheduledNotification{}, fmt.Errorf("%w: task %s has no due date", ErrNotScheduled, task.ID)
	}
	if minutesBefore < 0 || minutesBefore > maxMinutesBefore {
		return pomomo.ScheduledNotification{}, pomomo.ValidationError{
			Field:  "MinutesBefore",
			Value:  minutesBefore,
			Reason: fmt.Sprintf("must be between 0 and %d", maxMinutesBefore),
		}
	}

	due := task.DueDate.In(s.loc)
	fireTime := due.Add(-time.Duration(minutesBefore) * time.Minute)
	if !fireTime.After(s.now()) {
		return pomomo.ScheduledNotification{}, fmt.Errorf("%w: fire time %s already passed", ErrNotScheduled, fireTime.Format(time.RFC3339))
	}

	return pomomo.ScheduledNotification{
		TaskID:        task.ID,
		Type:          pomomo.DeadlineNotification,
		Title:         fmt.Sprintf("Deadline for %q in %d minutes", task.Title, minutesBefore),
		Body:          "This task is due " + due.Format("Mon Jan 2 15:04"),
		ScheduledTime: fireTime.UnixMilli(),
		URL:           TaskURL(task.ID),
	}, nil
}

func (s *Scheduler) daily(task pomomo.ExistingTaskRecord, hour, minute int) (pomomo.ScheduledNotification, error) {
	if err := checkEnabled(task); err != nil {
		return pomomo.ScheduledNotification{}, err
	}
	if hour < 0 || hour > 23 {
		return pomomo.ScheduledNotification{}, pomomo.ValidationError{Field: "Hour", Value: hour, Reason: "must be between 0 and 23"}
	}
	if minute < 0 || minute > 59 {
		return pomomo.ScheduledNotification{}, pomomo.ValidationError{Field: "Minute", Value: minute, Reason: "must be between 0 and 59"}
	}

	next := pomomo.NextDailyOccurrence(hour, minute, s.now().In(s.loc))
	return pomomo.ScheduledNotification{
		TaskID:        task.ID,
		Type:          pomomo.DailyNotification,
		Title:         "Daily reminder: " + task.Title,
		Body:          "Don't forget to work on this task." + s.deadlineSuffix(task),
		ScheduledTime: next.UnixMilli(),
		URL:           TaskURL(task.ID),
		Recurrence:    pomomo.Daily(hour, minute),
	}, nil
}

func (s *Scheduler) interval(task pomomo.ExistingTaskRecord, hours int) (pomomo.ScheduledNotification, error) {
	if err := checkEnabled(task); err != nil {
		return pomomo.ScheduledNotification{}, err
	}
	if hours < minIntervalHours || hours > maxIntervalHours {
		return pomomo.ScheduledNotification{}, pomomo.ValidationError{
			Field:  "IntervalHours",
			Value:  hours,
			Reason: fmt.Sprintf("must be between %d and %d", minIntervalHours, maxIntervalHours),
		}
	}

	return pomomo.ScheduledNotification{
		TaskID:        task.ID,
		Type:          pomomo.IntervalNotification,
		Title:         "Reminder: " + task.Title,
		Body:          fmt.Sprintf("It has been %d hours since the last reminder.", hours) + s.deadlineSuffix(task),
		ScheduledTime: s.now().Add(time.Duration(hours) * time.Hour).UnixMilli(),
		URL:           TaskURL(task.ID),
		Recurrence:    pomomo.Every(hours),
	}, nil
}

func (s *Scheduler) deadlineSuffix(task pomomo.ExistingTaskRecord) string {
	if task.DueDate == nil {
		return ""
	}
	return " Deadline: " + task.DueDate.In(s.loc).Format(time.DateOnly)
}

func checkEnabled(task pomomo.ExistingTaskRecord) error {
	if !task.Reminder {
		return fmt.Errorf("%w: reminders are off for task %s", ErrNotScheduled, task.ID)
	}
	return nil
}

// TaskURL is the page opened when a task's reminder is clicked.
func TaskURL(id pomomo.TaskID) string {
	return "/tasks/" + string(id)
}

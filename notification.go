package pomomo

import (
	"encoding/json"
	"fmt"
	"time"
)

// CheckScheduledNotifications is the message type the foreground sends to
// request an immediate dispatcher pass.
const CheckScheduledNotifications = "CHECK_SCHEDULED_NOTIFICATIONS"

type NotificationType string

const (
	DeadlineNotification NotificationType = "deadline"
	DailyNotification    NotificationType = "daily"
	IntervalNotification NotificationType = "interval"
)

func ParseNotificationType(s string) (NotificationType, error) {
	switch t := NotificationType(s); t {
	case DeadlineNotification, DailyNotification, IntervalNotification:
		return t, nil
	default:
		return "", fmt.Errorf("unknown notification type %q", s)
	}
}

type RecurrenceKind string

const (
	DailyRecurrence    RecurrenceKind = "daily"
	IntervalRecurrence RecurrenceKind = "interval"
)

// Recurrence describes how a fired reminder's next occurrence is derived.
// Hour and Minute apply to DailyRecurrence, Hours to IntervalRecurrence.
type Recurrence struct {
	Kind   RecurrenceKind
	Hour   int
	Minute int
	Hours  int
}

func Daily(hour, minute int) *Recurrence {
	return &Recurrence{Kind: DailyRecurrence, Hour: hour, Minute: minute}
}

func Every(hours int) *Recurrence {
	return &Recurrence{Kind: IntervalRecurrence, Hours: hours}
}

type dailyRecurrenceJSON struct {
	Type   RecurrenceKind `json:"type"`
	Hour   int            `json:"hour"`
	Minute int            `json:"minute"`
}

type intervalRecurrenceJSON struct {
	Type  RecurrenceKind `json:"type"`
	Hours int            `json:"hours"`
}

func (r Recurrence) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case DailyRecurrence:
		return json.Marshal(dailyRecurrenceJSON{Type: r.Kind, Hour: r.Hour, Minute: r.Minute})
	case IntervalRecurrence:
		return json.Marshal(intervalRecurrenceJSON{Type: r.Kind, Hours: r.Hours})
	default:
		return nil, fmt.Errorf("unknown recurrence kind %q", r.Kind)
	}
}

func (r *Recurrence) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   RecurrenceKind `json:"type"`
		Hour   int            `json:"hour"`
		Minute int            `json:"minute"`
		Hours  int            `json:"hours"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case DailyRecurrence:
		*r = Recurrence{Kind: raw.Type, Hour: raw.Hour, Minute: raw.Minute}
	case IntervalRecurrence:
		*r = Recurrence{Kind: raw.Type, Hours: raw.Hours}
	default:
		return fmt.Errorf("unknown recurrence kind %q", raw.Type)
	}
	return nil
}

// ScheduledNotification is a pending reminder. ScheduledTime is epoch millis.
type ScheduledNotification struct {
	TaskID        TaskID           `json:"taskId"`
	Type          NotificationType `json:"type"`
	Title         string           `json:"title"`
	Body          string           `json:"body"`
	ScheduledTime int64            `json:"scheduledTime"`
	URL           string           `json:"url"`
	Recurrence    *Recurrence      `json:"recurrence,omitempty"`
}

func (n ScheduledNotification) FireTime() time.Time {
	return time.UnixMilli(n.ScheduledTime)
}

func (n ScheduledNotification) IsDue(now time.Time) bool {
	return n.ScheduledTime <= now.UnixMilli()
}

// ExistingScheduledNotification carries the store's version token, bumped on
// every write to the (TaskID, Type) row.
type ExistingScheduledNotification struct {
	ScheduledNotification
	Version   int64     `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Notification holds the fields shown to the user.
type Notification struct {
	Title string
	Body  string
	Icon  string
	URL   string
}

// NextOccurrence returns the epoch millis at which a fired recurring reminder
// should fire again. Daily reminders move to hour:minute on the calendar day
// after now; interval reminders fire Hours after now.
func NextOccurrence(r Recurrence, now time.Time) int64 {
	switch r.Kind {
	case DailyRecurrence:
		y, m, d := now.Date()
		return time.Date(y, m, d+1, r.Hour, r.Minute, 0, 0, now.Location()).UnixMilli()
	case IntervalRecurrence:
		return now.Add(time.Duration(r.Hours) * time.Hour).UnixMilli()
	default:
		return now.UnixMilli()
	}
}

// NextDailyOccurrence returns the first hour:minute strictly after now.
func NextDailyOccurrence(hour, minute int, now time.Time) time.Time {
	y, m, d := now.Date()
	next := time.Date(y, m, d, hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(y, m, d+1, hour, minute, 0, 0, now.Location())
	}
	return next
}

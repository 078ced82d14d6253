package pomomo

import (
	"fmt"
	"time"
)

const (
	MinPhaseMinutes   = 1
	MaxPhaseMinutes   = 60
	MinLongBreakAfter = 1
	MaxLongBreakAfter = 10
)

// ValidationError reports a field rejected at a configuration boundary.
type ValidationError struct {
	Field  string
	Value  int
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %d: %s", e.Field, e.Value, e.Reason)
}

func checkRange(field string, v, lo, hi int) error {
	if v < lo || v > hi {
		return ValidationError{
			Field:  field,
			Value:  v,
			Reason: fmt.Sprintf("must be between %d and %d", lo, hi),
		}
	}
	return nil
}

// PomodoroSettings durations are in minutes.
type PomodoroSettings struct {
	WorkDuration       int `json:"workDuration"`
	ShortBreakDuration int `json:"shortBreakDuration"`
	LongBreakDuration  int `json:"longBreakDuration"`
	LongBreakAfter     int `json:"longBreakAfter"`
}

func DefaultPomodoroSettings() PomodoroSettings {
	return PomodoroSettings{
		WorkDuration:       25,
		ShortBreakDuration: 5,
		LongBreakDuration:  15,
		LongBreakAfter:     4,
	}
}

func (s PomodoroSettings) Validate() error {
	if err := checkRange("workDuration", s.WorkDuration, MinPhaseMinutes, MaxPhaseMinutes); err != nil {
		return err
	}
	if err := checkRange("shortBreakDuration", s.ShortBreakDuration, MinPhaseMinutes, MaxPhaseMinutes); err != nil {
		return err
	}
	if err := checkRange("longBreakDuration", s.LongBreakDuration, MinPhaseMinutes, MaxPhaseMinutes); err != nil {
		return err
	}
	return checkRange("longBreakAfter", s.LongBreakAfter, MinLongBreakAfter, MaxLongBreakAfter)
}

// Duration returns the configured length of phase p.
func (s PomodoroSettings) Duration(p Phase) time.Duration {
	switch p {
	case WorkPhase:
		return time.Duration(s.WorkDuration) * time.Minute
	case ShortBreakPhase:
		return time.Duration(s.ShortBreakDuration) * time.Minute
	case LongBreakPhase:
		return time.Duration(s.LongBreakDuration) * time.Minute
	default:
		return 0
	}
}

// Minutes returns the configured length of phase p in minutes.
func (s PomodoroSettings) Minutes(p Phase) int {
	return int(s.Duration(p) / time.Minute)
}

type NotificationSettings struct {
	DeadlineEnabled bool `json:"deadlineEnabled"`
	MinutesBefore   int  `json:"minutesBefore"`
	DailyEnabled    bool `json:"dailyEnabled"`
	DailyHour       int  `json:"dailyHour"`
	DailyMinute     int  `json:"dailyMinute"`
	IntervalEnabled bool `json:"intervalEnabled"`
	IntervalHours   int  `json:"intervalHours"`
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		DeadlineEnabled: true,
		MinutesBefore:   30,
		DailyEnabled:    false,
		DailyHour:       9,
		DailyMinute:     0,
		IntervalEnabled: false,
		IntervalHours:   10,
	}
}

func (s NotificationSettings) Validate() error {
	if err := checkRange("minutesBefore", s.MinutesBefore, 0, 7*24*60); err != nil {
		return err
	}
	if err := checkRange("dailyHour", s.DailyHour, 0, 23); err != nil {
		return err
	}
	if err := checkRange("dailyMinute", s.DailyMinute, 0, 59); err != nil {
		return err
	}
	return checkRange("intervalHours", s.IntervalHours, 1, 7*24)
}

type Preferences struct {
	Pomodoro      PomodoroSettings
	Notifications NotificationSettings
}

func DefaultPreferences() Preferences {
	return Preferences{
		Pomodoro:      DefaultPomodoroSettings(),
		Notifications: DefaultNotificationSettings(),
	}
}

package pomomo

import (
	"fmt"
	"time"
)

type Phase uint8

const (
	_ Phase = iota
	WorkPhase
	ShortBreakPhase
	LongBreakPhase
)

func (p Phase) String() string {
	switch p {
	case WorkPhase:
		return "Work"
	case ShortBreakPhase:
		return "Short Break"
	case LongBreakPhase:
		return "Long Break"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

func (p Phase) IsBreak() bool {
	return p == ShortBreakPhase || p == LongBreakPhase
}

type (
	TaskID    string
	SessionID string
)

// SessionType is the coarse kind reported in SessionComplete events.
type SessionType string

const (
	WorkSession  SessionType = "work"
	BreakSession SessionType = "break"
)

// SessionComplete is emitted by the session engine whenever a phase ends,
// either naturally or through a skip.
type SessionComplete struct {
	Type     SessionType `json:"type"`
	Phase    Phase       `json:"-"`
	Duration int         `json:"duration"` // minutes
	TaskID   TaskID      `json:"taskId,omitempty"`
}

type SessionRecord struct {
	TaskID          TaskID
	Type            SessionType
	Phase           Phase
	DurationMinutes int
	CompletedAt     time.Time
}

type ExistingSessionRecord struct {
	ExistingRecord[SessionID]
	SessionRecord
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
)

type TaskRecord struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    string
	Status      TaskStatus
	CategoryID  string
	Reminder    bool
}

type ExistingTaskRecord struct {
	ExistingRecord[TaskID]
	TaskRecord
}

type DailyStatistics struct {
	Date           string `json:"date"`
	CompletedTasks int    `json:"completedTasks"`
	PomodoroCount  int    `json:"pomodoroCount"`
	TotalFocusTime int    `json:"totalFocusTime"` // minutes
}

package tui

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamonnguyen/pomomo-focus"
	"github.com/benjamonnguyen/pomomo-focus/session"
)

func newTestEngine(t *testing.T) *session.Engine {
	t.Helper()
	e, err := session.NewEngine(context.Background(), pomomo.DefaultPomodoroSettings(), session.WithManualTick(), session.WithLogger(log.New(io.Discard)))
	require.NoError(t, err)
	t.Cleanup(e.Shutdown)
	return e
}

func testTasks() []pomomo.ExistingTaskRecord {
	return []pomomo.ExistingTaskRecord{
		{ExistingRecord: pomomo.NewExistingRecord[pomomo.TaskID]("task-1"), TaskRecord: pomomo.TaskRecord{Title: "write report"}},
		{ExistingRecord: pomomo.NewExistingRecord[pomomo.TaskID]("task-2"), TaskRecord: pomomo.TaskRecord{Title: "review PR"}},
	}
}

func press(m tea.Model, key string) (tea.Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
}

func TestModel_StartWithoutTaskShowsHint(t *testing.T) {
	e := newTestEngine(t)
	m := NewModel(e, NewPanelView(), testTasks())

	model, _ := press(m, "s")
	assert.False(t, e.State().Running)
	assert.Contains(t, model.View(), "press t to pick a task first")
}

func TestModel_CycleTasksAndStart(t *testing.T) {
	e := newTestEngine(t)
	m := NewModel(e, NewPanelView(), testTasks())

	press(m, "t")
	assert.Equal(t, pomomo.TaskID("task-1"), e.State().TaskID)
	press(m, "t")
	assert.Equal(t, pomomo.TaskID("task-2"), e.State().TaskID)
	press(m, "t")
	assert.Equal(t, pomomo.TaskID("task-1"), e.State().TaskID)

	model, _ := press(m, "s")
	assert.True(t, e.State().Running)
	assert.Contains(t, model.View(), "write report")

	model, _ = press(model, "t")
	assert.Equal(t, pomomo.TaskID("task-1"), e.State().TaskID)
	assert.Contains(t, model.View(), "pause or finish the session")
}

func TestModel_Keys(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.SelectTask("task-1"))
	m := NewModel(e, WidgetView{}, testTasks())
	assert.Equal(t, 0, m.taskIdx)

	press(m, "s")
	e.Tick()
	press(m, "p")
	assert.False(t, e.State().Running)
	assert.Equal(t, 1499, e.State().RemainingSeconds)

	press(m, "r")
	assert.Equal(t, 1500, e.State().RemainingSeconds)

	press(m, "n")
	assert.Equal(t, pomomo.ShortBreakPhase, e.State().Phase)

	_, cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_NoTasks(t *testing.T) {
	m := NewModel(newTestEngine(t), WidgetView{}, nil)
	model, _ := press(m, "t")
	assert.Contains(t, model.View(), "no open tasks")
}

func TestModel_EngineMessages(t *testing.T) {
	e := newTestEngine(t)
	m := NewModel(e, WidgetView{}, testTasks())

	require.NoError(t, e.SelectTask("task-1"))
	require.NoError(t, e.Start())
	e.Tick()
	assert.Contains(t, m.View(), "25:00", "stale until refreshed")

	model, _ := m.Update(RefreshMsg{})
	assert.Contains(t, model.View(), "24:59")

	model, _ = model.Update(SessionCompleteMsg{Type: pomomo.WorkSession, Phase: pomomo.WorkPhase, Duration: 25})
	assert.Contains(t, model.View(), "Work complete")
}

func TestPanelView_Render(t *testing.T) {
	out := NewPanelView().Render(Frame{
		State: session.State{
			Phase:            pomomo.WorkPhase,
			RemainingSeconds: 1500,
			TotalSeconds:     1500,
			SessionIndex:     2,
			LongBreakAfter:   4,
		},
		TaskTitle: "write report",
		Width:     60,
	})

	assert.Contains(t, out, "Work")
	assert.Contains(t, out, "25:00")
	assert.Contains(t, out, "paused")
	assert.Contains(t, out, "Session 2 of 4")
	assert.Contains(t, out, "Task: write report")
	assert.Contains(t, out, keyHelp)
}

func TestWidgetView_Render(t *testing.T) {
	out := WidgetView{}.Render(Frame{
		State: session.State{
			Phase:            pomomo.LongBreakPhase,
			RemainingSeconds: 61,
			TotalSeconds:     900,
			Running:          true,
			SessionIndex:     4,
			LongBreakAfter:   4,
		},
		TaskTitle: "write report",
	})

	assert.False(t, strings.Contains(out, "\n"))
	assert.Contains(t, out, "Long Break")
	assert.Contains(t, out, "01:01")
	assert.NotContains(t, out, "write report", "breaks hide the task")
}

func TestClock(t *testing.T) {
	assert.Equal(t, "25:00", clock(1500))
	assert.Equal(t, "01:00", clock(60))
	assert.Equal(t, "00:00", clock(-3))
}

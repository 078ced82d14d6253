package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/benjamonnguyen/pomomo-focus"
	"github.com/benjamonnguyen/pomomo-focus/session"
)

// Engine is the part of the session engine driven by key presses.
type Engine interface {
	State() session.State
	Start() error
	Pause()
	Reset()
	Skip()
	SelectTask(pomomo.TaskID) error
}

// RefreshMsg tells the model the engine changed. The model reads the state
// itself so late deliveries never roll the display back.
type RefreshMsg struct{}

// SessionCompleteMsg reports a finished phase.
type SessionCompleteMsg pomomo.SessionComplete

type Model struct {
	engine  Engine
	view    View
	tasks   []pomomo.ExistingTaskRecord
	taskIdx int
	state   session.State
	status  string
	width   int
}

func NewModel(engine Engine, view View, tasks []pomomo.ExistingTaskRecord) *Model {
	m := &Model{
		engine:  engine,
		view:    view,
		tasks:   tasks,
		taskIdx: -1,
		state:   engine.State(),
	}
	for i, t := range tasks {
		if t.ID == m.state.TaskID {
			m.taskIdx = i
		}
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case RefreshMsg:
		m.state = m.engine.State()
	case SessionCompleteMsg:
		m.status = fmt.Sprintf("%s complete", msg.Phase)
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	m.status = ""
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case "s":
		if err := m.engine.Start(); err != nil {
			m.status = describe(err)
		}
	case "p":
		m.engine.Pause()
	case "r":
		m.engine.Reset()
	case "n":
		m.engine.Skip()
	case "t":
		m.cycleTask()
	}
	m.state = m.engine.State()
	return nil
}

func (m *Model) cycleTask() {
	if len(m.tasks) == 0 {
		m.status = "no open tasks, add one with `pomomo task add`"
		return
	}
	next := (m.taskIdx + 1) % len(m.tasks)
	if err := m.engine.SelectTask(m.tasks[next].ID); err != nil {
		m.status = describe(err)
		return
	}
	m.taskIdx = next
}

func (m *Model) taskTitle() string {
	for _, t := range m.tasks {
		if t.ID == m.state.TaskID {
			return t.Title
		}
	}
	return string(m.state.TaskID)
}

func (m *Model) View() string {
	return m.view.Render(Frame{
		State:     m.state,
		TaskTitle: m.taskTitle(),
		Status:    m.status,
		Width:     m.width,
	})
}

func describe(err error) string {
	switch {
	case errors.Is(err, session.ErrNoTaskSelected):
		return "press t to pick a task first"
	case errors.Is(err, session.ErrTaskSelectionLocked):
		return "pause or finish the session to change tasks"
	default:
		return err.Error()
	}
}

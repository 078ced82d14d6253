// Package tui renders the pomodoro timer in the terminal.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/benjamonnguyen/pomomo-focus"
	"github.com/benjamonnguyen/pomomo-focus/session"
)

// Frame is everything a View needs to draw one screen.
type Frame struct {
	State     session.State
	TaskTitle string
	Status    string
	Width     int
}

// View renders a Frame. Views hold no timer state of their own, so any number
// of them can present the same engine.
type View interface {
	Render(Frame) string
}

var (
	phaseColors = map[pomomo.Phase]lipgloss.Color{
		pomomo.WorkPhase:       lipgloss.Color("#FF6B6B"),
		pomomo.ShortBreakPhase: lipgloss.Color("#57F287"),
		pomomo.LongBreakPhase:  lipgloss.Color("#5B8DEF"),
	}
	warningColor = lipgloss.Color("#ED4245")
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FEE75C"))
)

const (
	defaultWidth = 40
	keyHelp      = "s start • p pause • r reset • n skip • t task • q quit"
)

func clock(seconds int) string {
	seconds = max(0, seconds)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func taskLabel(title string) string {
	if title == "" {
		return "no task selected"
	}
	return title
}

// PanelView is the full timer panel.
type PanelView struct {
	bar progress.Model
}

func NewPanelView() *PanelView {
	return &PanelView{
		bar: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (v *PanelView) Render(f Frame) string {
	s := f.State
	width := f.Width
	if width <= 0 {
		width = defaultWidth
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(phaseColors[s.Phase]).
		Render(s.Phase.String())

	clockStyle := lipgloss.NewStyle().Bold(true).Padding(1, 0)
	if s.LastMinute() {
		clockStyle = clockStyle.Foreground(warningColor)
	}
	timer := clockStyle.Render(clock(s.RemainingSeconds))
	if !s.Running {
		timer += mutedStyle.Render(" paused")
	}

	v.bar.Width = max(10, width-4)
	lines := []string{
		title,
		timer,
		v.bar.ViewAs(s.Progress()),
		mutedStyle.Render(fmt.Sprintf("Session %d of %d", s.SessionIndex, s.LongBreakAfter)),
		"Task: " + taskLabel(f.TaskTitle),
	}
	if f.Status != "" {
		lines = append(lines, statusStyle.Render(f.Status))
	}
	lines = append(lines, "", mutedStyle.Render(keyHelp))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// WidgetView is a single-line rendering for small terminals and status bars.
type WidgetView struct{}

func (WidgetView) Render(f Frame) string {
	s := f.State
	marker := "▶"
	if !s.Running {
		marker = "⏸"
	}
	clockStyle := lipgloss.NewStyle().Foreground(phaseColors[s.Phase])
	if s.LastMinute() {
		clockStyle = clockStyle.Foreground(warningColor).Bold(true)
	}

	line := fmt.Sprintf("%s %s %s %d/%d", marker, s.Phase, clockStyle.Render(clock(s.RemainingSeconds)), s.SessionIndex, s.LongBreakAfter)
	if f.TaskTitle != "" && s.Phase == pomomo.WorkPhase {
		line += " · " + f.TaskTitle
	}
	if f.Status != "" {
		line += " " + statusStyle.Render("("+f.Status+")")
	}
	return line
}

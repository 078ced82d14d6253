package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/pomomo-focus"
	"github.com/benjamonnguyen/pomomo-focus/session"
	"github.com/benjamonnguyen/pomomo-focus/tui"
)

func timerCmd(a *app) *cobra.Command {
	var compact bool
	var taskID string

	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Run the pomodoro timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			return a.runTimer(cmd.Context(), pomomo.TaskID(taskID), compact)
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "single-line widget instead of the full panel")
	cmd.Flags().StringVar(&taskID, "task", "", "task to focus on")
	return cmd
}

func (a *app) runTimer(ctx context.Context, taskID pomomo.TaskID, compact bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close() //nolint

	prefs, err := st.prefs.GetPreferences(ctx)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}
	tasks, err := st.tasks.GetTasksByStatus(ctx, pomomo.TaskPending, pomomo.TaskInProgress)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	engine, err := session.NewEngine(ctx, prefs.Pomodoro, session.WithLogger(a.l))
	if err != nil {
		return err
	}
	defer engine.Shutdown()

	if taskID != "" {
		if _, err := st.tasks.GetTask(ctx, taskID); err != nil {
			return fmt.Errorf("get task %s: %w", taskID, err)
		}
		if err := engine.SelectTask(taskID); err != nil {
			return err
		}
	}
	engine.OnSessionComplete(a.recorder(st).SessionCompleteHandler())

	var view tui.View = tui.NewPanelView()
	var opts []tea.ProgramOption
	if compact {
		view = tui.WidgetView{}
	} else {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(tui.NewModel(engine, view, tasks), opts...)

	// handlers also fire from inside Update on key presses, so Send must not
	// block the event loop
	engine.OnUpdate(func(session.State) {
		go p.Send(tui.RefreshMsg{})
	})
	engine.OnSessionComplete(func(_ context.Context, e pomomo.SessionComplete) {
		go p.Send(tui.SessionCompleteMsg(e))
	})

	_, err = p.Run()
	return err
}

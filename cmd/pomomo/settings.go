package main

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/pomomo-focus"
)

func settingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change timer and reminder settings",
	}
	cmd.AddCommand(settingsShowCmd(a), settingsSetCmd(a))
	return cmd
}

func settingsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(ctx context.Context, st *store) error {
				prefs, err := st.prefs.GetPreferences(ctx)
				if err != nil {
					return err
				}
				printPreferences(cmd.OutOrStdout(), prefs)
				return nil
			})
		},
	}
}

func printPreferences(w io.Writer, prefs pomomo.Preferences) {
	p, n := prefs.Pomodoro, prefs.Notifications
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}
	t := table.New().Headers("SETTING", "VALUE").Rows(
		[]string{"work", fmt.Sprintf("%d min", p.WorkDuration)},
		[]string{"short break", fmt.Sprintf("%d min", p.ShortBreakDuration)},
		[]string{"long break", fmt.Sprintf("%d min", p.LongBreakDuration)},
		[]string{"long break after", fmt.Sprintf("%d sessions", p.LongBreakAfter)},
		[]string{"deadline reminder", fmt.Sprintf("%s, %d min before", onOff(n.DeadlineEnabled), n.MinutesBefore)},
		[]string{"daily reminder", fmt.Sprintf("%s, %02d:%02d", onOff(n.DailyEnabled), n.DailyHour, n.DailyMinute)},
		[]string{"interval reminder", fmt.Sprintf("%s, every %dh", onOff(n.IntervalEnabled), n.IntervalHours)},
	)
	fmt.Fprintln(w, t.Render())
}

func settingsSetCmd(a *app) *cobra.Command {
	var p pomomo.PomodoroSettings
	var n pomomo.NotificationSettings
	var dailyAt string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings",
		Long: `Change settings. Only the flags given are changed. Changing reminder
settings reschedules reminders for every open task.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.NFlag() == 0 {
				return fmt.Errorf("nothing to change, see --help")
			}
			if err := a.setup(); err != nil {
				return err
			}

			return a.withStore(cmd.Context(), func(ctx context.Context, st *store) error {
				prefs, err := st.prefs.GetPreferences(ctx)
				if err != nil {
					return err
				}

				pomodoro := prefs.Pomodoro
				setIfChanged(flags.Changed("work"), &pomodoro.WorkDuration, p.WorkDuration)
				setIfChanged(flags.Changed("short-break"), &pomodoro.ShortBreakDuration, p.ShortBreakDuration)
				setIfChanged(flags.Changed("long-break"), &pomodoro.LongBreakDuration, p.LongBreakDuration)
				setIfChanged(flags.Changed("long-break-after"), &pomodoro.LongBreakAfter, p.LongBreakAfter)
				if pomodoro != prefs.Pomodoro {
					if prefs, err = st.prefs.UpdatePomodoroSettings(ctx, pomodoro); err != nil {
						return err
					}
				}

				notifications := prefs.Notifications
				setIfChanged(flags.Changed("deadline"), &notifications.DeadlineEnabled, n.DeadlineEnabled)
				setIfChanged(flags.Changed("minutes-before"), &notifications.MinutesBefore, n.MinutesBefore)
				setIfChanged(flags.Changed("daily"), &notifications.DailyEnabled, n.DailyEnabled)
				setIfChanged(flags.Changed("interval"), &notifications.IntervalEnabled, n.IntervalEnabled)
				setIfChanged(flags.Changed("interval-hours"), &notifications.IntervalHours, n.IntervalHours)
				if flags.Changed("daily-at") {
					if notifications.DailyHour, notifications.DailyMinute, err = parseClock(dailyAt); err != nil {
						return err
					}
				}
				if notifications != prefs.Notifications {
					if prefs, err = st.prefs.UpdateNotificationSettings(ctx, notifications); err != nil {
						return err
					}
					if err := a.resyncReminders(ctx, st, notifications); err != nil {
						return err
					}
				}

				printPreferences(cmd.OutOrStdout(), prefs)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&p.WorkDuration, "work", 0, "work minutes")
	flags.IntVar(&p.ShortBreakDuration, "short-break", 0, "short break minutes")
	flags.IntVar(&p.LongBreakDuration, "long-break", 0, "long break minutes")
	flags.IntVar(&p.LongBreakAfter, "long-break-after", 0, "work sessions before a long break")
	flags.BoolVar(&n.DeadlineEnabled, "deadline", false, "deadline reminders")
	flags.IntVar(&n.MinutesBefore, "minutes-before", 0, "deadline reminder lead time in minutes")
	flags.BoolVar(&n.DailyEnabled, "daily", false, "daily reminders")
	flags.StringVar(&dailyAt, "daily-at", "", "daily reminder time, HH:MM")
	flags.BoolVar(&n.IntervalEnabled, "interval", false, "interval reminders")
	flags.IntVar(&n.IntervalHours, "interval-hours", 0, "hours between interval reminders")
	return cmd
}

func setIfChanged[T any](changed bool, dst *T, v T) {
	if changed {
		*dst = v
	}
}

// resyncReminders reapplies settings to every open task.
func (a *app) resyncReminders(ctx context.Context, st *store, settings pomomo.NotificationSettings) error {
	tasks, err := st.tasks.GetTasksByStatus(ctx, pomomo.TaskPending, pomomo.TaskInProgress)
	if err != nil {
		return err
	}
	scheduler := a.scheduler(st)
	for _, task := range tasks {
		if err := scheduler.Sync(ctx, task, settings); err != nil {
			return err
		}
	}
	a.l.Debug("resynced reminders", "tasks", len(tasks))
	return nil
}

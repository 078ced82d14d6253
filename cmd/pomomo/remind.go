package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/pomomo-focus"
	"github.com/benjamonnguyen/pomomo-focus/dispatch"
	"github.com/benjamonnguyen/pomomo-focus/httpapi"
	"github.com/benjamonnguyen/pomomo-focus/notify"
)

// parseClock parses HH:MM.
func parseClock(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time %q, use HH:MM", s)
	}
	if hour, err = strconv.Atoi(h); err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	if minute, err = strconv.Atoi(m); err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

func remindCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Schedule and inspect task reminders",
	}
	cmd.AddCommand(
		remindDeadlineCmd(a),
		remindDailyCmd(a),
		remindIntervalCmd(a),
		remindCancelCmd(a),
		remindListCmd(a),
		remindCheckCmd(a),
	)
	return cmd
}

func printScheduled(cmd *cobra.Command, n pomomo.ExistingScheduledNotification, loc *time.Location) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s reminder for task %s at %s\n", n.Type, n.TaskID, n.FireTime().In(loc).Format("2006-01-02 15:04"))
}

func remindDeadlineCmd(a *app) *cobra.Command {
	var minutes int

	cmd := &cobra.Command{
		Use:   "deadline <task-id>",
		Short: "Remind ahead of the task's due date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(ctx context.Context, st *store) error {
				task, err := getTask(ctx, st, pomomo.TaskID(args[0]))
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("minutes") {
					prefs, err := st.prefs.GetPreferences(ctx)
					if err != nil {
						return err
					}
					minutes = prefs.Notifications.MinutesBefore
				}
				n, err := a.scheduler(st).ScheduleDeadlineReminder(ctx, task, minutes)
				if err != nil {
					return err
				}
				printScheduled(cmd, n, a.loc)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&minutes, "minutes", 0, "minutes before the due date (default from settings)")
	return cmd
}

func remindDailyCmd(a *app) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "daily <task-id>",
		Short: "Remind every day at a fixed time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hour, minute, err := parseClock(at)
			if err != nil {
				return err
			}
			if err := a.setup(); err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(ctx context.Context, st *store) error {
				task, err := getTask(ctx, st, pomomo.TaskID(args[0]))
				if err != nil {
					return err
				}
				n, err := a.scheduler(st).ScheduleDailyReminder(ctx, task, hour, minute)
				if err != nil {
					return err
				}
				printScheduled(cmd, n, a.loc)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "09:00", "time of day, HH:MM")
	return cmd
}

func remindIntervalCmd(a *app) *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "interval <task-id>",
		Short: "Remind repeatedly every few hours",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(ctx context.Context, st *store) error {
				task, err := getTask(ctx, st, pomomo.TaskID(args[0]))
				if err != nil {
					return err
				}
				n, err := a.scheduler(st).ScheduleIntervalReminder(ctx, task, hours)
				if err != nil {
					return err
				}
				printScheduled(cmd, n, a.loc)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 10, "hours between reminders")
	return cmd
}

func remindCancelCmd(a *app) *cobra.Command {
	var typ string

	cmd := &cobra.Command{
		Use:   "cancel <task-id>",
		Short: "Cancel a task's reminders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			id := pomomo.TaskID(args[0])
			return a.withStore(cmd.Context(), func(ctx context.Context, st *store) error {
				scheduler := a.scheduler(st)
				if typ == "" {
					cnt, err := scheduler.CancelAll(ctx, id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "cancelled %d reminders for task %s\n", cnt, id)
					return nil
				}

				t, err := pomomo.ParseNotificationType(typ)
				if err != nil {
					return err
				}
				deleted, err := scheduler.CancelType(ctx, id, t)
				if err != nil {
					return err
				}
				if !deleted {
					fmt.Fprintf(cmd.OutOrStdout(), "no %s reminder for task %s\n", t, id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cancelled %s reminder for task %s\n", t, id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "deadline, daily or interval (default all)")
	return cmd
}

func remindListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scheduled reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(ctx context.Context, st *store) error {
				notifications, err := st.notifications.ListNotifications(ctx)
				if err != nil {
					return err
				}
				t := table.New().Headers("TASK", "TYPE", "AT", "REPEATS", "TITLE")
				for _, n := range notifications {
					repeats := "-"
					if r := n.Recurrence; r != nil {
						switch r.Kind {
						case pomomo.DailyRecurrence:
							repeats = fmt.Sprintf("daily %02d:%02d", r.Hour, r.Minute)
						case pomomo.IntervalRecurrence:
							repeats = fmt.Sprintf("every %dh", r.Hours)
						}
					}
					t.Row(string(n.TaskID), string(n.Type), n.FireTime().In(a.loc).Format("2006-01-02 15:04"), repeats, n.Title)
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.Render())
				return nil
			})
		},
	}
}

func remindCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Fire due reminders now",
		Long: `Ask the running daemon to check scheduled reminders. Without a daemon the
check runs once in this process.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			err := httpapi.NewClient(a.cfg.DaemonURL).Signal(ctx)
			if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "daemon signalled")
				return nil
			}
			a.l.Debug("daemon unavailable, checking locally", "err", err)

			return a.withStore(ctx, func(ctx context.Context, st *store) error {
				permission, err := notify.ParsePermission(a.cfg.Notifications.Permission)
				if err != nil {
					return err
				}
				notifier, err := a.notifier()
				if err != nil {
					return err
				}
				opts := append(a.dispatcherOptions(permission), dispatch.WithManualPass())
				d := dispatch.NewDispatcher(ctx, st.notifications, st.tx, notifier, opts...)
				defer d.Shutdown()

				fired, err := d.Pass(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d reminders fired\n", len(fired))
				return nil
			})
		},
	}
}

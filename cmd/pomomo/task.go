package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/pomomo-focus"
	"github.com/benjamonnguyen/pomomo-focus/sqlite"
)

var dueLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", time.DateOnly}

// parseDue accepts RFC3339 or local date/time forms. A bare date means the end
// of that day.
func parseDue(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range dueLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		if layout == time.DateOnly {
			t = t.Add(23*time.Hour + 59*time.Minute)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid due date %q, use YYYY-MM-DD [HH:MM] or RFC3339", s)
}

func taskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(
		taskAddCmd(a),
		taskListCmd(a),
		taskStatusCmd(a, "start", "Mark a task in progress", pomomo.TaskInProgress),
		taskStatusCmd(a, "done", "Complete a task and cancel its reminders", pomomo.TaskCompleted),
		taskRemoveCmd(a),
		taskReminderCmd(a),
	)
	return cmd
}

func taskAddCmd(a *app) *cobra.Command {
	var due, description, priority, category string
	var noReminder bool

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			record := pomomo.TaskRecord{
				Title:       strings.Join(args, " "),
				Description: description,
				Priority:    priority,
				CategoryID:  category,
				Reminder:    !noReminder,
			}
			if due != "" {
				t, err := parseDue(due, a.loc)
				if err != nil {
					return err
				}
				record.DueDate = &t
			}

			return a.withStore(cmd.Context(), func(ctx context.Context, st *store) error {
				task, err := st.tasks.InsertTask(ctx, record)
				if err != nil {
					return fmt.Errorf("insert task: %w", err)
				}
				if err := a.syncReminders(ctx, st, task); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added task %s\n", task.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "due date, YYYY-MM-DD [HH:MM] or RFC3339")
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&priority, "priority", "medium", "low, medium or high")
	cmd.Flags().StringVar(&category, "category", "", "category id")
	cmd.Flags().BoolVar(&noReminder, "no-reminder", false, "do not schedule reminders for this task")
	return cmd
}

func taskListCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			statuses := []pomomo.TaskStatus{pomomo.TaskPending, pomomo.TaskInProgress}
			if all {
				statuses = nil
			}
			return a.withStore(cmd.Context(), func(ctx context.Context, st *store) error {
				tasks, err := st.tasks.GetTasksByStatus(ctx, statuses...)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTasks(tasks, a.loc))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include completed tasks")
	return cmd
}

func renderTasks(tasks []pomomo.ExistingTaskRecord, loc *time.Location) string {
	t := table.New().Headers("ID", "TITLE", "STATUS", "DUE", "PRIORITY", "REMINDERS")
	for _, task := range tasks {
		due := "-"
		if task.DueDate != nil {
			due = task.DueDate.In(loc).Format("2006-01-02 15:04")
		}
		reminders := "off"
		if task.Reminder {
			reminders = "on"
		}
		t.Row(string(task.ID), task.Title, string(task.Status), due, task.Priority, reminders)
	}
	return t.Render()
}

func taskStatusCmd(a *app, use, short string, status pomomo.TaskStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(ctx context.Context, st *store) error {
				task, err := a.setTaskStatus(ctx, st, pomomo.TaskID(args[0]), status)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "task %s is %s\n", task.ID, task.Status)
				return nil
			})
		},
	}
}

// setTaskStatus updates the task. Completing it cancels its reminders and
// counts it in today's statistics, all in one transaction.
func (a *app) setTaskStatus(ctx context.Context, st *store, id pomomo.TaskID, status pomomo.TaskStatus) (pomomo.ExistingTaskRecord, error) {
	var updated pomomo.ExistingTaskRecord
	err := st.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		task, err := getTask(ctx, st, id)
		if err != nil {
			return err
		}
		if task.Status == status {
			updated = task
			return nil
		}

		record := task.TaskRecord
		record.Status = status
		updated, err = st.tasks.UpdateTask(ctx, id, record)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		if status != pomomo.TaskCompleted {
			return nil
		}

		if _, err := a.scheduler(st).CancelAll(ctx, id); err != nil {
			return err
		}
		return a.recorder(st).HandleTaskCompleted(ctx, id)
	})
	if err != nil {
		return pomomo.ExistingTaskRecord{}, err
	}
	return updated, nil
}

func taskRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <task-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task and its reminders",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			id := pomomo.TaskID(args[0])
			return a.withStore(cmd.Context(), func(ctx context.Context, st *store) error {
				if _, err := getTask(ctx, st, id); err != nil {
					return err
				}
				if _, err := a.scheduler(st).CancelAll(ctx, id); err != nil {
					return err
				}
				if _, err := st.tasks.DeleteTask(ctx, id); err != nil {
					return fmt.Errorf("delete task: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted task %s\n", id)
				return nil
			})
		},
	}
}

func taskReminderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "reminder <on|off> <task-id>",
		Short:     "Turn a task's reminders on or off",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled bool
			switch args[0] {
			case "on":
				enabled = true
			case "off":
			default:
				return fmt.Errorf("expected on or off, got %q", args[0])
			}
			if err := a.setup(); err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(ctx context.Context, st *store) error {
				task, err := getTask(ctx, st, pomomo.TaskID(args[1]))
				if err != nil {
					return err
				}
				record := task.TaskRecord
				record.Reminder = enabled
				task, err = st.tasks.UpdateTask(ctx, task.ID, record)
				if err != nil {
					return fmt.Errorf("update task: %w", err)
				}
				if err := a.syncReminders(ctx, st, task); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "reminders %s for task %s\n", args[0], task.ID)
				return nil
			})
		},
	}
	return cmd
}

// syncReminders applies the saved notification settings to task.
func (a *app) syncReminders(ctx context.Context, st *store, task pomomo.ExistingTaskRecord) error {
	prefs, err := st.prefs.GetPreferences(ctx)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}
	return a.scheduler(st).Sync(ctx, task, prefs.Notifications)
}

func getTask(ctx context.Context, st *store, id pomomo.TaskID) (pomomo.ExistingTaskRecord, error) {
	task, err := st.tasks.GetTask(ctx, id)
	if errors.Is(err, sqlite.ErrNotFound) {
		return pomomo.ExistingTaskRecord{}, fmt.Errorf("task %s not found", id)
	}
	if err != nil {
		return pomomo.ExistingTaskRecord{}, fmt.Errorf("get task %s: %w", id, err)
	}
	return task, nil
}

// withStore opens the database for the duration of fn.
func (a *app) withStore(ctx context.Context, fn func(context.Context, *store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close() //nolint
	return fn(ctx, st)
}

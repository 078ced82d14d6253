package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/pomomo-focus"
)

func statsCmd(a *app) *cobra.Command {
	var date string
	var days int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show daily focus statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			end := a.now()
			if date != "" {
				t, err := time.ParseInLocation(time.DateOnly, date, a.loc)
				if err != nil {
					return fmt.Errorf("invalid date %q, use YYYY-MM-DD", date)
				}
				end = t
			}
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}
			from := pomomo.DateKey(end.AddDate(0, 0, -(days - 1)))
			to := pomomo.DateKey(end)

			return a.withStore(cmd.Context(), func(ctx context.Context, st *store) error {
				rows, err := st.stats.ListStatistics(ctx, from, to)
				if err != nil {
					return err
				}
				t := table.New().Headers("DATE", "POMODOROS", "FOCUS", "TASKS DONE")
				for _, s := range fillDays(rows, end, days) {
					t.Row(s.Date, strconv.Itoa(s.PomodoroCount), fmt.Sprintf("%dh%02dm", s.TotalFocusTime/60, s.TotalFocusTime%60), strconv.Itoa(s.CompletedTasks))
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.Render())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "last day to show, YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&days, "days", 1, "number of days to show")
	return cmd
}

// fillDays returns one row per day ending at end, zero rows for missing days.
func fillDays(rows []pomomo.DailyStatistics, end time.Time, days int) []pomomo.DailyStatistics {
	byDate := make(map[string]pomomo.DailyStatistics, len(rows))
	for _, r := range rows {
		byDate[r.Date] = r
	}
	out := make([]pomomo.DailyStatistics, 0, days)
	for i := days - 1; i >= 0; i-- {
		key := pomomo.DateKey(end.AddDate(0, 0, -i))
		s, ok := byDate[key]
		if !ok {
			s = pomomo.DailyStatistics{Date: key}
		}
		out = append(out, s)
	}
	return out
}

package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hades-rgb/timesheets/internal/models"
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show this week's saved hours per employee and project",
	Long: `Show a weekly timesheet of saved sessions grouped by day.

Example output:
  Employee / Project      Mon    Tue    Wed    Thu    Fri    Total
  Alice / Website        8.50   7.00      -      -      -    15.50
  Bob / none                -   4.25      -      -      -     4.25
  Total                  8.50  11.25   0.00   0.00   0.00    19.75`,
	Args: cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		employee, _ := cmd.Flags().GetString("employee")
		offset, _ := cmd.Flags().GetInt("ago")

		loc := a.cfg.Location()
		weekStart := getWeekStart(time.Now().In(loc)).AddDate(0, 0, -7*offset)
		weekEnd := weekStart.AddDate(0, 0, 7)

		rows, err := a.ledger.RowsBetween(cmd.Context(), employee, &weekStart, &weekEnd)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions saved this week.")
			return nil
		}

		displayWeek(cmd.OutOrStdout(), buildWeek(rows, weekStart, loc))
		return nil
	}),
}

var weekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday}

// weekReport is hours per (employee, project) key per weekday
type weekReport struct {
	start  time.Time
	keys   []string
	hours  map[string]map[time.Weekday]float64
	active map[time.Weekday]bool
}

// getWeekStart returns midnight on the Monday of t's week
func getWeekStart(t time.Time) time.Time {
	daysFromMonday := (int(t.Weekday()) + 6) % 7
	start := t.AddDate(0, 0, -daysFromMonday)
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, t.Location())
}

// buildWeek groups rows by employee and project, attributing each session
// to the day it was clocked in on
func buildWeek(rows []models.LedgerRow, weekStart time.Time, loc *time.Location) weekReport {
	r := weekReport{
		start:  weekStart,
		hours:  map[string]map[time.Weekday]float64{},
		active: map[time.Weekday]bool{},
	}
	for _, row := range rows {
		key := row.Employee + " / " + orNone(row.Project)
		if r.hours[key] == nil {
			r.hours[key] = map[time.Weekday]float64{}
			r.keys = append(r.keys, key)
		}
		day := row.ClockInAt.In(loc).Weekday()
		r.hours[key][day] += row.Hours
		if row.Hours > 0 {
			r.active[day] = true
		}
	}
	sort.Strings(r.keys)
	return r
}

// days returns Monday to Friday plus any weekend day with work
func (r weekReport) days() []time.Weekday {
	var days []time.Weekday
	for i, d := range weekdays {
		if i < 5 || r.active[d] {
			days = append(days, d)
		}
	}
	return days
}

func displayWeek(w io.Writer, r weekReport) {
	const cell = 7
	days := r.days()

	nameWidth := 20
	for _, k := range r.keys {
		nameWidth = max(nameWidth, len(k))
	}
	nameWidth = min(nameWidth, 40)

	separator := strings.Repeat("-", nameWidth) + strings.Repeat(" "+strings.Repeat("-", cell-1), len(days)+1)

	fmt.Fprintf(w, "%-*s", nameWidth, "Employee / Project")
	for _, d := range days {
		fmt.Fprintf(w, "%*s", cell, d.String()[:3])
	}
	fmt.Fprintf(w, "%*s\n", cell+2, "Total")
	fmt.Fprintln(w, separator)

	dayTotals := map[time.Weekday]float64{}
	grand := 0.0
	for _, k := range r.keys {
		fmt.Fprintf(w, "%-*s", nameWidth, truncate(k, nameWidth))
		rowTotal := 0.0
		for _, d := range days {
			h := r.hours[k][d]
			if h > 0 {
				fmt.Fprintf(w, "%*.2f", cell, h)
			} else {
				fmt.Fprintf(w, "%*s", cell, "-")
			}
			dayTotals[d] += h
			rowTotal += h
		}
		fmt.Fprintf(w, "%*.2f\n", cell+2, rowTotal)
		grand += rowTotal
	}

	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "%-*s", nameWidth, "Total")
	for _, d := range days {
		fmt.Fprintf(w, "%*.2f", cell, dayTotals[d])
	}
	fmt.Fprintf(w, "%*.2f\n", cell+2, grand)

	fmt.Fprintf(w, "\nWeek of %s to %s\n",
		r.start.Format("Jan 2"),
		r.start.AddDate(0, 0, 6).Format("Jan 2, 2006"))
}

func init() {
	weekCmd.Flags().StringP("employee", "e", "", "Only this employee")
	weekCmd.Flags().Int("ago", 0, "Show the week this many weeks back")
}

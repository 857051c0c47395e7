package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hades-rgb/timesheets/internal/timesheet"
	"github.com/hades-rgb/timesheets/internal/tui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the selected employee's session",
	Long: `Show the selected employee's session. Opens an interactive screen by
default where i, o and s clock in, clock out and save. Use --no-ui for plain
text output.`,
	Args: cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		noUI, _ := cmd.Flags().GetBool("no-ui")
		if noUI {
			snap, err := a.snapshot(cmd.Context())
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), snap, time.Now(), a.cfg.Location())
			return nil
		}
		return tui.RunStatusTUI(a.snapshot, a.trigger, a.cfg.Location())
	}),
}

// snapshot reads the selection and the selected employee's session record
func (a *app) snapshot(ctx context.Context) (tui.Snapshot, error) {
	sel, err := a.dashboard.Current(ctx)
	if err != nil {
		return tui.Snapshot{}, err
	}
	snap := tui.Snapshot{Employee: sel.Employee, Project: sel.Project, Tasks: sel.Tasks}
	if sel.Employee == "" {
		return snap, nil
	}
	snap.Session, err = a.sessions.Get(ctx, sel.Employee)
	return snap, err
}

// trigger dispatches action for the status screen
func (a *app) trigger(ctx context.Context, action timesheet.Action) (timesheet.Status, string) {
	out := a.dispatcher.Dispatch(ctx, action)
	return out.Status, out.Message
}

func printStatus(w io.Writer, snap tui.Snapshot, now time.Time, loc *time.Location) {
	if snap.Employee == "" {
		fmt.Fprintln(w, "No employee selected.")
		return
	}
	fmt.Fprintf(w, "Employee: %s\n", snap.Employee)
	fmt.Fprintf(w, "Project:  %s\n", orNone(snap.Project))

	rec := snap.Session
	switch {
	case rec.IsOpen():
		fmt.Fprintf(w, "Clocked in %s, at %s\n",
			humanize.RelTime(*rec.ClockInAt, now, "ago", "from now"),
			timesheet.FormatDisplay(*rec.ClockInAt, loc))
		fmt.Fprintf(w, "Elapsed:  %.2f hours\n", now.Sub(*rec.ClockInAt).Hours())
	case rec.IsClosed():
		fmt.Fprintf(w, "Clocked out at %s, not saved yet\n", timesheet.FormatDisplay(*rec.ClockOutAt, loc))
		hours := rec.ClockOutAt.Sub(*rec.ClockInAt).Hours()
		if rec.TotalHours != nil {
			hours = *rec.TotalHours
		}
		fmt.Fprintf(w, "Total:    %.2f hours\n", hours)
	default:
		fmt.Fprintln(w, "Not clocked in")
	}

	if len(snap.Tasks) > 0 {
		fmt.Fprintf(w, "Tasks:    %s\n", humanize.Comma(int64(len(snap.Tasks))))
		for _, t := range snap.Tasks {
			if t.Notes != "" {
				fmt.Fprintf(w, "  - %s (%s)\n", t.Description, t.Notes)
			} else {
				fmt.Fprintf(w, "  - %s\n", t.Description)
			}
		}
	}
}

func init() {
	statusCmd.Flags().Bool("no-ui", false, "Print the status without the interactive screen")
}

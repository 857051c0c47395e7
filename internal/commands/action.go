package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hades-rgb/timesheets/internal/delegate"
	"github.com/hades-rgb/timesheets/internal/timesheet"
)

var clockInCmd = &cobra.Command{
	Use:     "in",
	Aliases: []string{"clock-in"},
	Short:   "Clock in the selected employee",
	Args:    cobra.NoArgs,
	RunE:    withDispatcher(runAction(timesheet.ActionClockIn)),
}

var clockOutCmd = &cobra.Command{
	Use:     "out",
	Aliases: []string{"clock-out"},
	Short:   "Clock out the selected employee",
	Args:    cobra.NoArgs,
	RunE:    withDispatcher(runAction(timesheet.ActionClockOut)),
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the selected employee's closed session to the ledger",
	Args:  cobra.NoArgs,
	RunE:  withDispatcher(runAction(timesheet.ActionSaveSession)),
}

var doCmd = &cobra.Command{
	Use:   "do ACTION",
	Short: "Run an action by name (clockIn, clock-out, save, ...)",
	Args:  cobra.ExactArgs(1),
	RunE: withDispatcher(func(cmd *cobra.Command, args []string, d *delegate.Dispatcher) error {
		action, ok := timesheet.ParseAction(args[0])
		if !ok {
			return fmt.Errorf("unknown action %q", args[0])
		}
		return runAction(action)(cmd, args, d)
	}),
}

func runAction(action timesheet.Action) func(*cobra.Command, []string, *delegate.Dispatcher) error {
	return func(cmd *cobra.Command, args []string, d *delegate.Dispatcher) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		out := d.Dispatch(cmd.Context(), action)
		return report(cmd.OutOrStdout(), out, verbose)
	}
}

// report prints the outcome line and turns anything but success into ErrActionFailed
func report(w io.Writer, out delegate.Outcome, verbose bool) error {
	fmt.Fprintln(w, out.String())
	if verbose {
		mode := string(out.Mode)
		if out.FellBack {
			mode += " (fell back to relay)"
		}
		fmt.Fprintf(w, "mode: %s\n", mode)
	}
	if out.Status != timesheet.StatusSuccess {
		return ErrActionFailed
	}
	return nil
}

func init() {
	for _, cmd := range []*cobra.Command{clockInCmd, clockOutCmd, saveCmd, doCmd} {
		cmd.Flags().BoolP("verbose", "v", false, "Also print how the action was executed")
	}
}

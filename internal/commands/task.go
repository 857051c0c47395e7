package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hades-rgb/timesheets/internal/parser"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage the task lines saved with the next session",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <description> [:: notes]",
	Short: "Add a task line",
	Long: `Add a task line for the session in progress. Everything after "::" is
stored as notes. Ticket references such as app-123 are upper-cased.

Example:
  timesheets task add "Fix login APP-42 :: pairing with Bob"`,
	Args: cobra.MinimumNArgs(1),
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		parsed := parser.ParseTaskLine(strings.Join(args, " "))
		if !parsed.Valid() {
			return fmt.Errorf("invalid task: %s", strings.Join(parsed.Errors, ", "))
		}

		task, err := a.dashboard.AddTask(cmd.Context(), parsed.Description, parsed.Notes)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added task #%d: %s\n", task.ID, task.Description)
		return nil
	}),
}

var taskListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List task lines",
	Args:    cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		sel, err := a.dashboard.Current(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(sel.Tasks) == 0 {
			fmt.Fprintln(out, "No tasks. Use 'timesheets task add \"description :: notes\"' to add one.")
			return nil
		}

		fmt.Fprintf(out, "%-4s %-40s %s\n", "ID", "DESCRIPTION", "NOTES")
		fmt.Fprintln(out, strings.Repeat("-", 70))
		for _, t := range sel.Tasks {
			fmt.Fprintf(out, "%-4d %-40s %s\n", t.ID, truncate(t.Description, 40), t.Notes)
		}
		return nil
	}),
}

var taskClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all task lines",
	Args:  cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.dashboard.ClearTasks(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cleared all tasks.")
		return nil
	}),
}

// truncate shortens s to width runes, ending in "..."
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

func init() {
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskClearCmd)
}

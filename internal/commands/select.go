package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var selectCmd = &cobra.Command{
	Use:   "select [employee]",
	Short: "Select the employee actions apply to",
	Long: `Select the employee (and optionally the project) that clock-in, clock-out
and save act on. Without arguments the current selection is printed.

Examples:
  timesheets select Alice
  timesheets select "Bob Smith" --project Website`,
	Args: cobra.MaximumNArgs(1),
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		current, err := a.dashboard.Current(ctx)
		if err != nil {
			return err
		}

		if len(args) == 0 {
			if current.Employee == "" {
				fmt.Fprintln(out, "No employee selected.")
				return nil
			}
			fmt.Fprintf(out, "Employee: %s\nProject:  %s\n", current.Employee, orNone(current.Project))
			return nil
		}

		employee := strings.TrimSpace(args[0])
		if employee == "" {
			return fmt.Errorf("employee name must not be empty")
		}
		project := current.Project
		if cmd.Flags().Changed("project") {
			project, _ = cmd.Flags().GetString("project")
			project = strings.TrimSpace(project)
		}

		if err := a.dashboard.Select(ctx, employee, project); err != nil {
			return err
		}
		fmt.Fprintf(out, "Selected %s (project: %s)\n", employee, orNone(project))
		return nil
	}),
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func init() {
	selectCmd.Flags().StringP("project", "p", "", "Project label saved with the session")
}

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hades-rgb/timesheets/internal/models"
	"github.com/hades-rgb/timesheets/internal/parser"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "List saved sessions",
	Long: `List sessions saved to the ledger, oldest first.

Examples:
  timesheets ledger --since today
  timesheets ledger --employee Alice --since "2 weeks"
  timesheets ledger --since 01/03/2024 --json`,
	Args: cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		employee, _ := cmd.Flags().GetString("employee")
		sinceStr, _ := cmd.Flags().GetString("since")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		withTasks, _ := cmd.Flags().GetBool("tasks")

		loc := a.cfg.Location()
		since, err := parser.ParseSince(sinceStr, time.Now().In(loc))
		if err != nil {
			return err
		}

		rows, err := a.ledger.RowsBetween(cmd.Context(), employee, since, nil)
		if err != nil {
			return err
		}

		tasks := map[int][]models.TaskEntry{}
		if withTasks || jsonOutput {
			for _, row := range rows {
				if tasks[row.SessionID], err = a.ledger.Tasks(cmd.Context(), row.SessionID); err != nil {
					return err
				}
			}
		}

		if jsonOutput {
			return renderLedgerJSON(cmd.OutOrStdout(), rows, tasks)
		}
		renderLedgerTable(cmd.OutOrStdout(), rows, tasks, loc)
		return nil
	}),
}

func renderLedgerJSON(w io.Writer, rows []models.LedgerRow, tasks map[int][]models.TaskEntry) error {
	type jsonRow struct {
		models.LedgerRow
		Tasks []models.TaskEntry `json:"tasks"`
	}
	out := make([]jsonRow, 0, len(rows))
	for _, row := range rows {
		t := tasks[row.SessionID]
		if t == nil {
			t = []models.TaskEntry{}
		}
		out = append(out, jsonRow{LedgerRow: row, Tasks: t})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderLedgerTable(w io.Writer, rows []models.LedgerRow, tasks map[int][]models.TaskEntry, loc *time.Location) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No saved sessions found.")
		return
	}

	fmt.Fprintf(w, "%-6s %-16s %-15s %-17s %-17s %6s\n", "ID", "EMPLOYEE", "PROJECT", "IN", "OUT", "HOURS")
	fmt.Fprintln(w, strings.Repeat("-", 82))

	total := 0.0
	for _, row := range rows {
		fmt.Fprintf(w, "%-6d %-16s %-15s %-17s %-17s %6.2f\n",
			row.SessionID,
			truncate(row.Employee, 16),
			truncate(orNone(row.Project), 15),
			row.ClockInAt.In(loc).Format("02 Jan 2006 15:04"),
			row.ClockOutAt.In(loc).Format("02 Jan 2006 15:04"),
			row.Hours)
		for _, t := range tasks[row.SessionID] {
			line := "         - " + t.Description
			if t.Notes != "" {
				line += " (" + t.Notes + ")"
			}
			fmt.Fprintln(w, line)
		}
		total += row.Hours
	}

	fmt.Fprintln(w, strings.Repeat("-", 82))
	fmt.Fprintf(w, "%d sessions, %.2f hours\n", len(rows), total)
}

func init() {
	ledgerCmd.Flags().StringP("employee", "e", "", "Only this employee")
	ledgerCmd.Flags().StringP("since", "s", "", "Window start: today, dd/mm/yyyy, X hours, X days or X weeks")
	ledgerCmd.Flags().BoolP("tasks", "t", false, "Show the tasks saved with each session")
	ledgerCmd.Flags().Bool("json", false, "JSON output")
}

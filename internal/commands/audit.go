package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent audit entries",
	Args:  cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := a.audit.Recent(cmd.Context(), limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No audit entries yet.")
			return nil
		}

		now := time.Now()
		fmt.Fprintf(out, "%-16s %-20s %-14s %-12s %-8s %s\n", "WHEN", "ACTOR", "EMPLOYEE", "ACTION", "STATUS", "MESSAGE")
		fmt.Fprintln(out, strings.Repeat("-", 100))
		for _, e := range entries {
			fmt.Fprintf(out, "%-16s %-20s %-14s %-12s %-8s %s\n",
				humanize.RelTime(e.Timestamp, now, "ago", "from now"),
				truncate(e.Actor, 20),
				truncate(e.Employee, 14),
				e.Action,
				e.Status,
				e.Message)
		}
		return nil
	}),
}

func init() {
	auditCmd.Flags().IntP("limit", "n", 20, "Number of entries to show")
}

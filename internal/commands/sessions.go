package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hades-rgb/timesheets/internal/models"
	"github.com/hades-rgb/timesheets/internal/timesheet"
)

// importAction names session imports in the audit log
const importAction = "importSessions"

// hoursTolerance allows for total_hours written with sub-second rounding
const hoursTolerance = 1.0 / 3600

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Export or replace the in-progress session store",
	Long: `Admin access to the in-progress session store. Saved sessions live in the
ledger and are not affected.`,
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every in-progress session as YAML or JSON",
	Args:  cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		format, _ := cmd.Flags().GetString("format")
		sessions, err := a.sessions.Load(cmd.Context())
		if err != nil {
			return err
		}
		return encodeSessions(cmd.OutOrStdout(), sessions, format)
	}),
}

var sessionsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the whole session store with the contents of file",
	Long: `Replace the whole session store with the contents of file. Employees not in
the file lose their in-progress session. The format follows the extension
(.json, otherwise YAML).`,
	Args: cobra.ExactArgs(1),
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		n, err := importSessions(cmd.Context(), a.sessions, a.audit, a.cfg.Actor, args[0], data)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d sessions.\n", n)
		return nil
	}),
}

type sessionReplacer interface {
	Save(ctx context.Context, sessions map[string]models.SessionRecord) error
}

type auditAppender interface {
	Append(ctx context.Context, entry models.AuditEntry)
}

// importSessions replaces the session store with the sessions in data and
// audits the attempt either way
func importSessions(ctx context.Context, store sessionReplacer, audit auditAppender, actor, source string, data []byte) (int, error) {
	sessions, err := decodeSessions(data, formatFromPath(source))
	if err == nil {
		err = store.Save(ctx, sessions)
	}

	entry := models.AuditEntry{Actor: actor, Action: importAction}
	if err != nil {
		entry.Status = string(timesheet.StatusError)
		entry.Message = fmt.Sprintf("Import of %s failed: %v", source, err)
		audit.Append(ctx, entry)
		return 0, err
	}
	entry.Status = string(timesheet.StatusSuccess)
	entry.Message = fmt.Sprintf("Imported %d sessions from %s", len(sessions), source)
	audit.Append(ctx, entry)
	return len(sessions), nil
}

func formatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}

func encodeSessions(w io.Writer, sessions map[string]models.SessionRecord, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sessions)
	case "yaml", "yml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(sessions); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q (use yaml or json)", format)
	}
}

// decodeSessions parses an export. The map key is authoritative for the
// employee and records without a clock-in are rejected. Closed sessions get
// their hours from the clock times; a total_hours that disagrees is an error.
func decodeSessions(data []byte, format string) (map[string]models.SessionRecord, error) {
	sessions := map[string]models.SessionRecord{}
	var err error
	if format == "json" {
		err = json.Unmarshal(data, &sessions)
	} else {
		err = yaml.Unmarshal(data, &sessions)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse sessions: %w", err)
	}

	for employee, rec := range sessions {
		if strings.TrimSpace(employee) == "" {
			return nil, fmt.Errorf("session with an empty employee name")
		}
		if rec.ClockInAt == nil {
			return nil, fmt.Errorf("session of %s has no clock_in_at", employee)
		}
		if rec.ClockOutAt != nil && rec.ClockOutAt.Before(*rec.ClockInAt) {
			return nil, fmt.Errorf("session of %s ends before it starts", employee)
		}
		switch {
		case rec.ClockOutAt == nil && rec.TotalHours != nil:
			return nil, fmt.Errorf("session of %s has total_hours but no clock_out_at", employee)
		case rec.ClockOutAt != nil:
			hours := rec.ClockOutAt.Sub(*rec.ClockInAt).Hours()
			if rec.TotalHours != nil && math.Abs(*rec.TotalHours-hours) > hoursTolerance {
				return nil, fmt.Errorf("session of %s has total_hours %.2f but lasts %.2f hours", employee, *rec.TotalHours, hours)
			}
			rec.TotalHours = &hours
		}
		rec.Employee = employee
		sessions[employee] = rec
	}
	return sessions, nil
}

func init() {
	sessionsExportCmd.Flags().StringP("format", "f", "yaml", "Output format: yaml or json")

	sessionsCmd.AddCommand(sessionsExportCmd)
	sessionsCmd.AddCommand(sessionsImportCmd)
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Show help for timesheets",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			if target, _, err := rootCmd.Find(args); err == nil && target != rootCmd {
				_ = target.Help()
				return
			}
		}
		showCustomHelp(cmd)
	},
}

func showCustomHelp(cmd *cobra.Command) {
	fmt.Fprint(cmd.OutOrStdout(), `
timesheets - clock in, clock out, save to the ledger

SESSION:
  in                      Clock in the selected employee
  out                     Clock out and compute the hours
  save                    Commit the closed session to the ledger
  do <action>             Run clockIn, clock-out, save, ... by name
    -v, --verbose         Show whether the action ran directly or via the relay
  status                  Interactive status screen (i/o/s/r/q)
    --no-ui               Plain text output

EMPLOYEE CONTEXT:
  select <employee>       Select who actions apply to
    -p, --project         Project label saved with the session
  task add <line>         Add a task line, "description :: notes"
  task ls                 List task lines
  task clear              Remove all task lines

REPORTS:
  ledger                  List saved sessions
    -e, --employee        Only this employee
    -s, --since           today, dd/mm/yyyy, X hours, X days, X weeks
    -t, --tasks           Show saved tasks
    --json                JSON output
  week                    Hours per day for the current week
    --ago N               N weeks back
  audit                   Recent audit entries
    -n, --limit           Number of entries

ADMIN:
  serve                   Run the HTTP trigger service (as the owner)
    -l, --listen          Listen address
  sessions export         Dump in-progress sessions (--format yaml|json)
  sessions import <file>  Replace in-progress sessions from a dump
  version                 Print version information

GLOBAL:
  -c, --config            Config file (default ~/.timesheets/config.yml)

Callers other than the configured owner have their actions relayed to
relay_url. Set TIMESHEETS_LOG_LEVEL=debug for diagnostics.

`)
}

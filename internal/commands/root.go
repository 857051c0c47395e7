package commands

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hades-rgb/timesheets/internal/config"
	"github.com/hades-rgb/timesheets/internal/db"
	"github.com/hades-rgb/timesheets/internal/delegate"
	"github.com/hades-rgb/timesheets/internal/logging"
	"github.com/hades-rgb/timesheets/internal/relay"
	"github.com/hades-rgb/timesheets/internal/timesheet"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	cfgFile string
)

// ErrActionFailed is returned after an outcome line has already been
// printed, so main only needs to set the exit code
var ErrActionFailed = stderrors.New("action did not succeed")

var rootCmd = &cobra.Command{
	Use:   "timesheets",
	Short: "Clock in, clock out and save work sessions",
	Long: `timesheets records employee work sessions in a shared ledger.

Clock in when you start, clock out when you stop and save the session to
commit it. Callers that are not the store owner have their actions relayed
to the owner's service.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// app is everything a command needs, built once per invocation
type app struct {
	cfg        *config.Config
	sessions   *db.SessionStore
	ledger     *db.Ledger
	audit      *db.AuditLog
	dashboard  *db.Dashboard
	service    *timesheet.Service
	dispatcher *delegate.Dispatcher
}

// loadConfig reads the config file and configures logging from it
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logging.Configure(cfg.Log, os.Stderr)
	return cfg, nil
}

// newApp opens the database and wires the stores, state machine and dispatcher
func newApp(cfg *config.Config) (*app, error) {
	if err := db.Initialize(cfg.Database); err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		sessions:  db.NewSessionStore(db.DB),
		ledger:    db.NewLedger(db.DB),
		audit:     db.NewAuditLog(db.DB),
		dashboard: db.NewDashboard(db.DB),
	}
	a.service = timesheet.NewService(a.sessions, a.ledger, a.audit, a.dashboard,
		timesheet.WithLocation(cfg.Location()))
	a.dispatcher = delegate.New(cfg.Owner, cfg.Actor, a.service, relay.New(cfg.RelayURL, cfg.Actor))
	return a, nil
}

// withDB wraps a command to load config and open the database first
func withDB(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		return fn(cmd, args, a)
	}
}

// newDispatcher builds the dispatcher for one action. Relayed callers never
// touch the shared store, so the database is only opened for the owner.
func newDispatcher(cfg *config.Config) (*delegate.Dispatcher, func(), error) {
	client := relay.New(cfg.RelayURL, cfg.Actor)
	if !delegate.IsOwner(cfg.Owner, cfg.Actor) {
		return delegate.New(cfg.Owner, cfg.Actor, nil, client), func() {}, nil
	}

	a, err := newApp(cfg)
	if err != nil {
		return nil, nil, err
	}
	return a.dispatcher, func() { db.Close() }, nil
}

// withDispatcher wraps an action command so it gets a dispatcher in the
// right mode for the configured actor
func withDispatcher(fn func(cmd *cobra.Command, args []string, d *delegate.Dispatcher) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		d, closeFn, err := newDispatcher(cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		return fn(cmd, args, d)
	}
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "timesheets %s (commit %s, built %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ~/.timesheets/config.yml)")

	rootCmd.AddCommand(clockInCmd)
	rootCmd.AddCommand(clockOutCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(doCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(weekCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.SetHelpCommand(helpCmd)
	rootCmd.AddCommand(versionCmd)
}

package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hades-rgb/timesheets/internal/delegate"
	"github.com/hades-rgb/timesheets/internal/errors"
	"github.com/hades-rgb/timesheets/internal/logging"
	"github.com/hades-rgb/timesheets/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP trigger service as the store owner",
	Long: `Run the HTTP service that relayed actions are sent to.

The service writes the shared store directly, so it must run as the
configured owner. Relay clients point their relay_url at it.

  GET  /                      readiness check
  POST / action=clockIn       clockOut and saveSession work the same way`,
	Args: cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		if !delegate.IsOwner(a.cfg.Owner, a.cfg.Actor) {
			return errors.ConfigInvalid("serve must run as the owner " + a.cfg.Owner + ", not " + a.cfg.Actor)
		}

		listen, _ := cmd.Flags().GetString("listen")
		if listen == "" {
			listen = a.cfg.Listen
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logging.NewLogger("serve").WithField("owner", a.cfg.Owner).Info("starting trigger service")
		return server.Run(ctx, listen, server.NewHandler(a.service, a.audit))
	}),
}

func init() {
	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on (default from config)")
}

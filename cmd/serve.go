package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pijaz/pijaz-go/internal/app"
	"github.com/pijaz/pijaz-go/internal/config"
)

// newServeCmd creates the serve command, which exposes the configured
// product over HTTP until interrupted.
func newServeCmd() *cobra.Command {
	var (
		listen  string
		noWatch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendered images over HTTP",
		Long: `Starts an HTTP server that renders the configured product on request.

Endpoints:
  GET /render?key=value   the rendered image; query values are render parameters
  GET /url?key=value      the render URL as JSON
  GET /healthz            liveness check

The workflow query parameter selects a different workflow. Access tokens are
shared between requests and renewed when they expire. The configuration file
is watched and reloaded on change unless --no-watch is given.

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApplication(false)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			addr := listen
			if addr == "" {
				addr = application.PijazConfig().Serve.Listen
			}
			if addr == "" {
				addr = config.DefaultListenAddress
			}

			server := app.NewServer(application, addr, !noWatch)
			return server.Run(commandContext(cmd), func(bound string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Serving renders on http://%s/render\n", bound)
			})
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from serve.listen, then "+config.DefaultListenAddress+")")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the configuration when it changes")
	return cmd
}

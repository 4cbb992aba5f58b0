package cli

import (
	"net"

	"github.com/spf13/cobra"

	"github.com/matzehuels/procdraw/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until interrupted.

Endpoints:
  GET  /healthz      liveness and build information
  POST /v1/route     route one edge
  POST /v1/overlay   resolve an overlay badge
  POST /v1/export    export a scene diagram (query: format, diagram, scale,
                     border, hide, download, encoding=datauri)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.conf()
			if addr == "" {
				addr = cfg.Server.Addr
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			eng, err := cfg.Engine()
			if err != nil {
				return err
			}
			srv := server.New(runner, server.Config{
				Addr:         addr,
				ReadTimeout:  cfg.Server.ReadTimeout.Duration,
				MaxBodyBytes: cfg.Server.MaxBodyBytes,
				Export:       cfg.ExportOptions(),
				Raster:       cfg.RasterOptions(),
				Engine:       eng,
				Tolerance:    cfg.Route.Tolerance,
			}, c.Logger)

			printKeyValue("Address", addr)
			printKeyValue("Cache", cfg.Cache.Backend)
			printKeyValue("Engine", eng.Name())
			printNextStep("Check health", "curl http://"+healthHost(addr)+"/healthz")
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

// healthHost turns a listen address into one a client can dial.
func healthHost(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}

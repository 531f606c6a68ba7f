package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the route inspector",
		Long: `Start an HTTP inspector for the route table.

Endpoints:
  GET  /api/routes            route table
  GET  /api/routes/{selector} one route by path or name
  GET  /api/uri?url=          parse a target
  GET  /api/current           current route
  POST /api/navigate          {"url": "/docs", "replace": false}
  GET  /metrics               Prometheus metrics
  GET  /ws                    navigation event stream

Examples:
  routekit serve
  routekit serve --port=8080
  routekit serve --host=0.0.0.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := loadApp(ctx, flags)
			if err != nil {
				return err
			}
			cfg := app.Config()
			if port > 0 {
				cfg.Dev.Port = port
			}
			if host != "" {
				cfg.Dev.Host = host
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if _, err := app.Router().Run(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printBanner(out)
			success(out, "Loaded %d routes", len(app.Router().RouteList()))
			info(out, "Inspector: %s", cfg.DevURL())
			info(out, "Events:    ws://%s/ws", cfg.DevAddress())

			return app.Server().ListenAndServe(ctx, cfg.DevAddress())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")

	return cmd
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/justified/internal/server"
	"github.com/matzehuels/justified/pkg/config"
)

// serveCommand creates the serve command for the HTTP layout endpoint.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layouts over HTTP",
		Long: `Serve layouts over HTTP.

Endpoints:
  GET  /healthz                 liveness probe
  GET  /v1/breakpoints?width=W  breakpoint table, and the entry for W
  POST /v1/layout               pack items into a layout document

Packing defaults, limits and the cache backend come from the config file.
With the redis backend, responses are cached and shared between instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				c.Config.Server.Addr = addr
			}
			return c.runServe(cmd.Context(), noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", config.Default().Server.Addr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runServe serves until ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	var opts []server.Option
	if !noCache && c.Config.Cache.Backend == config.BackendRedis {
		opts = append(opts, server.WithResponseCache(runner.Cache))
	}

	srv := server.New(runner, c.Config, c.Logger, opts...)
	printInfo("Serving on %s", StyleLink.Render("http://"+displayAddr(c.Config.Server.Addr)))
	return srv.ListenAndServe(ctx, c.Config.Server.Addr)
}

// displayAddr turns ":8080" into "localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

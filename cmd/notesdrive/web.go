package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"notesdrive/internal/config"
	"notesdrive/internal/web"
)

const webFormOverhead = 1 << 20

func newWebCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "web",
		Short: "Serve the browser UI against the configured platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return newWebServer(cfg).ListenAndServe(ctx)
		},
	}
}

func newWebServer(cfg *config.Config) *web.Server {
	return web.New(
		cfg.WebAddr,
		web.ClientConnector{BaseURL: cfg.APIURL},
		web.Options{MaxFormBytes: cfg.Storage.MaxUploadBytes + webFormOverhead},
		slog.Default().With("component", "web"),
	)
}

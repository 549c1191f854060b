package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"notesdrive/internal/blobstore"
	"notesdrive/internal/config"
	"notesdrive/internal/server"
	"notesdrive/internal/store"
)

func newPlatformCmd(cfg *config.Config) *cobra.Command {
	var withWeb bool

	cmd := &cobra.Command{
		Use:   "platform",
		Short: "Run the notes platform (auth, data API and object storage)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := slog.Default().With("component", "platform")

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}
			opts, err := platformOptions(cfg)
			if err != nil {
				return err
			}

			logger.Info("opening database", "path", cfg.DBPath)
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			if pruned, err := st.PruneSessions(ctx, time.Now().UTC()); err != nil {
				logger.Warn("prune sessions", "error", err)
			} else if pruned > 0 {
				logger.Info("pruned sessions", "count", pruned)
			}

			logger.Info("opening blob store", "root", cfg.Storage.Root)
			blobs, err := blobstore.NewLocalStore(cfg.Storage.Root, cfg.Storage.MaxUploadBytes)
			if err != nil {
				return err
			}

			srv, err := server.New(addr, st, blobs, opts, logger)
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.ListenAndServe(gctx) })
			if withWeb {
				ui := newWebServer(cfg)
				g.Go(func() error { return ui.ListenAndServe(gctx) })
			}
			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&withWeb, "with-web", false, "also serve the web UI on web_addr")
	return cmd
}

func platformOptions(cfg *config.Config) (server.Options, error) {
	var opts server.Options

	sessionTTL, err := cfg.SessionTTLDuration()
	if err != nil {
		return opts, err
	}
	urlTTL, err := cfg.URLTTLDuration()
	if err != nil {
		return opts, err
	}
	policy, err := blobstore.NewPolicy(cfg.Storage.AllowedPatterns)
	if err != nil {
		return opts, err
	}

	opts.SessionTTL = sessionTTL
	opts.Policy = policy
	opts.MaxUploadBytes = cfg.Storage.MaxUploadBytes
	if cfg.Storage.SigningSecret != "" {
		signer, err := blobstore.NewSigner([]byte(cfg.Storage.SigningSecret), urlTTL)
		if err != nil {
			return opts, err
		}
		opts.Signer = signer
	}
	return opts, nil
}

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/url"
	"os"
	"os/exec"
	"time"

	"notesdrive/internal/api"
	"notesdrive/internal/config"
	"notesdrive/internal/notes"
)

const (
	platformStartTimeout = 3 * time.Second
	platformPollInterval = 100 * time.Millisecond
)

// withClient runs fn against a signed-in API client.
func withClient(cfg *config.Config, fn func(*api.Client) error) error {
	cleanup, err := ensurePlatform(cfg)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	client := api.NewClient(cfg.APIURL)
	if client.Token() == "" {
		cached, err := activeToken(cfg, time.Now())
		if err != nil {
			return err
		}
		client.SetToken(cached.Token)
	}
	return fn(client)
}

// withController runs fn against a controller whose notes are already loaded.
func withController(ctx context.Context, cfg *config.Config, fn func(*notes.Controller) error) error {
	return withClient(cfg, func(client *api.Client) error {
		ctrl := notes.NewController(client, client, notes.WithLogger(slog.Default().With("component", "cli")))
		if err := ctrl.Refresh(ctx); err != nil {
			return err
		}
		return fn(ctrl)
	})
}

// ensurePlatform starts a local platform process when a loopback API URL is unreachable.
func ensurePlatform(cfg *config.Config) (func(), error) {
	client := api.NewClient(cfg.APIURL)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := client.Ping(ctx); err == nil {
		return nil, nil
	}
	if !isLoopbackURL(cfg.APIURL) {
		return nil, nil
	}

	cmd, err := startPlatformProcess(cfg)
	if err != nil {
		return nil, err
	}

	if err := waitForPlatform(client, platformStartTimeout); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}

	cleanup := func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}

	return cleanup, nil
}

func startPlatformProcess(cfg *config.Config) (*exec.Cmd, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(exe, "platform")
	cmd.Env = append(os.Environ(),
		"NOTESDRIVE_DB="+cfg.DBPath,
		"NOTESDRIVE_API_URL="+cfg.APIURL,
		"NOTESDRIVE_BLOB_ROOT="+cfg.Storage.Root,
	)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	slog.Debug("started local platform", "pid", cmd.Process.Pid, "api_url", cfg.APIURL)
	return cmd, nil
}

func waitForPlatform(client *api.Client, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		err := client.Ping(ctx)
		cancel()
		if err == nil {
			return nil
		}
		if !isConnRefused(err) {
			// Port is taken by something that is not a notes platform.
			return err
		}
		time.Sleep(platformPollInterval)
	}
	return errors.New("platform did not start in time")
}

func isConnRefused(err error) bool {
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

func isLoopbackURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"notesdrive/internal/api"
	internalauth "notesdrive/internal/auth"
	"notesdrive/internal/config"
)

func newSignInCmd(cfg *config.Config) *cobra.Command {
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "signin <username>",
		Short: "Sign in to the notes platform and cache the session",
		Args:  requireOneArg("username"),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := internalauth.NormalizeUsername(args[0])
			if err != nil {
				return err
			}
			password, err := readPassword(cmd.InOrStdin(), passwordStdin)
			if err != nil {
				return err
			}
			path, err := config.SessionPath()
			if err != nil {
				return err
			}

			cleanup, err := ensurePlatform(cfg)
			if err != nil {
				return err
			}
			if cleanup != nil {
				defer cleanup()
			}

			client := api.NewClient(cfg.APIURL)
			session, err := client.SignIn(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			cached := cachedSession{
				APIURL:    cfg.APIURL,
				Username:  session.Username,
				Token:     session.Token,
				ExpiresAt: session.ExpiresAt,
			}
			if err := saveSession(path, cached); err != nil {
				return err
			}

			if structuredOutput() {
				return writeOutput(map[string]any{
					"username":   session.Username,
					"expires_at": session.ExpiresAt,
				})
			}
			return writePlain("signed in as %s until %s\n", session.Username, formatTime(session.ExpiresAt))
		},
	}

	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read password from stdin")
	return cmd
}

func newSignOutCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Revoke the cached session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.SessionPath()
			if err != nil {
				return err
			}
			err = withClient(cfg, func(client *api.Client) error {
				return client.SignOut(cmd.Context())
			})
			if err != nil && !errors.Is(err, errNotSignedIn) {
				return err
			}
			if err := clearSession(path); err != nil {
				return err
			}
			return writePlain("signed out\n")
		},
	}
}

// readPassword reads one line from in. Without --password-stdin it prompts first.
func readPassword(in io.Reader, fromStdin bool) (string, error) {
	if !fromStdin {
		fmt.Fprint(os.Stderr, "Password: ")
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	password := strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(password) == "" {
		return "", fmt.Errorf("password is required")
	}
	return password, nil
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	internalauth "notesdrive/internal/auth"
	"notesdrive/internal/config"
	"notesdrive/internal/server"
	"notesdrive/internal/store"
)

// newUserCmd manages platform users directly in the local database.
func newUserCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage platform users in the local database",
	}
	cmd.AddCommand(newUserAddCmd(cfg))
	cmd.AddCommand(newUserListCmd(cfg))
	cmd.AddCommand(newUserSetDisabledCmd(cfg, "disable", "Disable one user", true))
	cmd.AddCommand(newUserSetDisabledCmd(cfg, "enable", "Enable one user", false))
	cmd.AddCommand(newUserDeleteCmd(cfg))
	return cmd
}

func withStore(cfg *config.Config, fn func(*store.Store) error) error {
	if cfg.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func newUserAddCmd(cfg *config.Config) *cobra.Command {
	var (
		passwordStdin bool
		role          string
	)

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create one user",
		Args:  requireOneArg("username"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !passwordStdin {
				return fmt.Errorf("--password-stdin is required")
			}
			password, err := readPassword(cmd.InOrStdin(), true)
			if err != nil {
				return err
			}

			return withStore(cfg, func(st *store.Store) error {
				svc := server.NewAuthService(st, 0)
				created, err := svc.ProvisionUser(cmd.Context(), args[0], password, role, time.Now().UTC())
				if err != nil {
					return err
				}
				if structuredOutput() {
					return writeOutput(created)
				}
				return writePlain("created user %s (%s)\n", created.Username, created.ID)
			})
		},
	}

	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read password from stdin")
	cmd.Flags().StringVar(&role, "role", store.RoleUser, "user role (user, admin)")
	return cmd
}

func newUserListCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List provisioned users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(st *store.Store) error {
				users, err := server.NewAuthService(st, 0).ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				return writeUserList(users)
			})
		},
	}
}

func newUserSetDisabledCmd(cfg *config.Config, name, short string, disabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <username>",
		Short: short,
		Args:  requireOneArg("username"),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := internalauth.NormalizeUsername(args[0])
			if err != nil {
				return err
			}

			return withStore(cfg, func(st *store.Store) error {
				updated, err := st.SetUserDisabled(cmd.Context(), username, disabled, time.Now().UTC())
				if err != nil {
					return err
				}
				if updated == nil {
					return fmt.Errorf("user %s not found", username)
				}
				if structuredOutput() {
					return writeOutput(updated)
				}

				action := "enabled"
				if disabled {
					action = "disabled"
				}
				return writePlain("%s user %s\n", action, updated.Username)
			})
		},
	}
}

func newUserDeleteCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <username>",
		Aliases: []string{"rm"},
		Short:   "Delete one user and their sessions",
		Args:    requireOneArg("username"),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := internalauth.NormalizeUsername(args[0])
			if err != nil {
				return err
			}

			return withStore(cfg, func(st *store.Store) error {
				deleted, err := st.DeleteUser(cmd.Context(), username)
				if err != nil {
					return err
				}
				if !deleted {
					return fmt.Errorf("user %s not found", username)
				}
				if structuredOutput() {
					return writeOutput(map[string]any{"username": username, "deleted": true})
				}
				return writePlain("deleted user %s\n", username)
			})
		},
	}
}

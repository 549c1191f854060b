package main

import (
	"database/sql"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"notesdrive/internal/config"
	"notesdrive/internal/store"

	_ "modernc.org/sqlite"
)

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	var inspect bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run or inspect database schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inspect {
				db, err := openRawDB(cfg.DBPath)
				if err != nil {
					return err
				}
				defer db.Close()

				plan, err := store.MigrationPlan(db)
				if err != nil {
					return fmt.Errorf("inspect migrations: %w", err)
				}
				return writeMigrationStatus(plan)
			}

			// Opening the store applies pending migrations.
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			defer st.Close()

			status, err := st.MigrationStatus()
			if err != nil {
				return err
			}
			return writeMigrationStatus(status)
		},
	}

	cmd.Flags().BoolVar(&inspect, "inspect", false, "show pending migrations without applying them")
	return cmd
}

func writeMigrationStatus(status *store.MigrationStatus) error {
	if structuredOutput() {
		return writeOutput(status)
	}
	if err := writePlain("current version: %d\navailable version: %d\n", status.CurrentVersion, status.AvailableVersion); err != nil {
		return err
	}
	if len(status.Pending) == 0 {
		return writePlain("no pending migrations\n")
	}
	for _, m := range status.Pending {
		if err := writePlain("  pending %d: %s\n", m.Version, m.Description); err != nil {
			return err
		}
	}
	return nil
}

func openRawDB(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("db path is required")
	}
	u := url.URL{Scheme: "file", Path: path}
	return sql.Open("sqlite", u.String())
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"notesdrive/internal/config"
	"notesdrive/internal/format"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		logLevel     string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:           "notesdrive",
		Short:         "Notesdrive keeps named notes with optional images on a notes platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			formatter, err := format.New(outputFormat)
			if err != nil {
				return err
			}
			outputFormatter = formatter
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", format.Text, "output format (text, json, yaml)")

	cmd.AddCommand(
		newPlatformCmd(cfg),
		newWebCmd(cfg),
		newSignInCmd(cfg),
		newSignOutCmd(cfg),
		newListCmd(cfg),
		newAddCmd(cfg),
		newEditCmd(cfg),
		newRmCmd(cfg),
		newUserCmd(cfg),
		newMigrateCmd(cfg),
		newConfigCmd(cfg),
	)

	return cmd
}

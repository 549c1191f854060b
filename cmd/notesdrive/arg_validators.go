package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// requireOneArg accepts a single non-blank positional argument named by noun.
func requireOneArg(noun string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		switch {
		case len(args) == 0:
			return fmt.Errorf("%s is required", noun)
		case len(args) > 1:
			return fmt.Errorf("expected one %s, got %d", noun, len(args))
		case strings.TrimSpace(args[0]) == "":
			return fmt.Errorf("%s must not be blank", noun)
		}
		return nil
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/uniform/internal/core/hooks"
)

func newHookCommand(_ *app) *cobra.Command {
	var binary string
	cmd := &cobra.Command{
		Use:     "hook SCRIPT...",
		Short:   "Print a git hook script that runs uniform scripts in hook mode",
		Example: `  uniform hook "exec web composer lint" > .git/hooks/pre-commit`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), hooks.GenerateHookScript(args, binary))
			return nil
		},
	}
	cmd.Flags().StringVar(&binary, "binary", "uniform", "Command the hook invokes")
	return cmd
}

package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/artpar/uniform/internal/core/workspace"
	"github.com/artpar/uniform/internal/shell/status"
)

var (
	stateRunning = color.New(color.FgGreen).SprintFunc()
	stateStopped = color.New(color.FgRed).SprintFunc()
)

func newPsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ps",
		Aliases: []string{"status"},
		Short:   "Show which components are running",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			o, err := a.orchestrator(ctx)
			if err != nil {
				return err
			}
			entries := a.scanner(o.Prober()).ScanAll(ctx, o.Workspace())
			if a.options.Tag != "" {
				entries = filterByTag(entries, o.Workspace(), a.options.Tag)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SERVICE\tSTATE\tCONTAINER")
			for _, e := range entries {
				state := stateStopped(string(e.State))
				if e.State == status.StateRunning {
					state = stateRunning(string(e.State))
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, state, e.ShortID)
			}
			return tw.Flush()
		},
	}
}

func filterByTag(entries []status.Entry, ws *workspace.Workspace, tag string) []status.Entry {
	tagged := make(map[string]bool)
	for _, c := range ws.ByTag(tag) {
		tagged[c.Name] = true
	}
	out := entries[:0]
	for _, e := range entries {
		if tagged[e.Name] {
			out = append(out, e)
		}
	}
	return out
}

func newCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [SERVICES...]",
		Short: "Validate the compose file of each component",
		Long:  `check loads each component's compose file with the component's
variables as interpolation environment and reports its services, the
variables it references but never receives, and whether the exec service
exists. A failing component does not stop the others.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			o, err := a.orchestrator(ctx)
			if err != nil {
				return err
			}
			targets := o.Workspace().Executables()
			if len(args) > 0 || a.options.Tag != "" {
				if targets, err = o.Targets(args); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			var errs []error
			for _, c := range targets {
				result, err := o.Check(ctx, c)
				if err != nil {
					fmt.Fprintf(out, "%s %s: %v\n", color.RedString("✖"), c.Name, err)
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(out, "%s %s: %s\n", color.GreenString("✔"), c.Name, strings.Join(result.Spec.ServiceNames(), ", "))
				if len(result.MissingVariables) > 0 {
					fmt.Fprintf(out, "  %s unset variables: %s\n", color.YellowString("!"), strings.Join(result.MissingVariables, ", "))
				}
				if result.ExecServiceErr != nil {
					fmt.Fprintf(out, "  %s %v\n", color.YellowString("!"), result.ExecServiceErr)
				}
			}
			return errors.Join(errs...)
		},
	}
}

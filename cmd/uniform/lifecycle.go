package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"

	"github.com/artpar/uniform/internal/core/workspace"
	"github.com/artpar/uniform/internal/shell/orchestrator"
)

// defaultExecCommand runs when exec is given no command.
const defaultExecCommand = "sh"

var errNoTargets = errors.New("no services given, name one or more or use --tag")

// lifecycleAction is one per-component operation of start, stop, restart
// and destroy.
type lifecycleAction func(ctx context.Context, o *orchestrator.Orchestrator, c *workspace.Component) (string, error)

// runLifecycle applies action to every target in order and stops at the
// first error.
func runLifecycle(cmd *cobra.Command, a *app, names []string, action lifecycleAction) error {
	ctx := cmd.Context()
	o, err := a.orchestrator(ctx)
	if err != nil {
		return err
	}
	targets, err := o.Targets(names)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return errNoTargets
	}

	for _, c := range targets {
		out, err := action(ctx, o, c)
		if err != nil {
			return fmt.Errorf("%s: %w", c.Name, err)
		}
		if out != "" {
			fmt.Fprintln(cmd.OutOrStdout(), out)
		}
	}
	return nil
}

func newStartCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "start [SERVICES...]",
		Short: "Start components and their dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, a, args, func(ctx context.Context, o *orchestrator.Orchestrator, c *workspace.Component) (string, error) {
				return o.Start(ctx, c)
			})
		},
	}
}

func newStopCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stop [SERVICES...]",
		Short: "Stop components",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, a, args, func(ctx context.Context, o *orchestrator.Orchestrator, c *workspace.Component) (string, error) {
				return o.Stop(ctx, c)
			})
		},
	}
}

func newRestartCommand(a *app) *cobra.Command {
	var hard bool
	cmd := &cobra.Command{
		Use:   "restart [SERVICES...]",
		Short: "Stop and start components again",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, a, args, func(ctx context.Context, o *orchestrator.Orchestrator, c *workspace.Component) (string, error) {
				return o.Restart(ctx, c, hard)
			})
		},
	}
	cmd.Flags().BoolVar(&hard, "hard", false, "Remove the containers (compose down) instead of stopping them")
	return cmd
}

func newDestroyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy [SERVICES...]",
		Short: "Remove the containers of components (compose down)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, a, args, func(ctx context.Context, o *orchestrator.Orchestrator, c *workspace.Component) (string, error) {
				if err := o.Destroy(ctx, c); err != nil {
					return "", err
				}
				return color.GreenString("🗑  Component %q destroyed", c.Name), nil
			})
		},
	}
}

// splitCommand turns a single quoted argument into argv; several
// arguments are taken as given.
func splitCommand(args []string) ([]string, error) {
	if len(args) != 1 {
		return args, nil
	}
	words, err := shellwords.Parse(args[0])
	if err != nil {
		return nil, fmt.Errorf("cannot parse command %q: %w", args[0], err)
	}
	return words, nil
}

func newExecCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "exec SERVICE [COMMAND...]",
		Short:   "Run a command in a component, starting it first",
		Example: `  uniform exec web composer install
  uniform exec web "php -r 'echo 1;'"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			command, err := splitCommand(args[1:])
			if err != nil {
				return err
			}
			if len(command) == 0 {
				command = []string{defaultExecCommand}
			}

			o, err := a.orchestrator(ctx)
			if err != nil {
				return err
			}
			c, err := o.Workspace().LookupExecutable(args[0])
			if err != nil {
				return err
			}
			_, err = o.Exec(ctx, c, command, true)
			return err
		},
	}
	// Flags after SERVICE belong to the command.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newComposeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "compose SERVICE ARGS...",
		Short:   "Pass arguments through to docker compose for a component",
		Example: `  uniform compose web logs -f
  uniform compose web "exec -T app env"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			composeArgs, err := splitCommand(args[1:])
			if err != nil {
				return err
			}
			o, err := a.orchestrator(ctx)
			if err != nil {
				return err
			}
			c, err := o.Workspace().LookupExecutable(args[0])
			if err != nil {
				return err
			}
			return o.Compose(ctx, c, composeArgs)
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uniform",
		Short: "Run docker compose workspaces",
		Long:  `uniform starts, stops and execs into the components of a workspace.
Each component is a docker compose project; its variables, template and
dependencies are declared in the workspace's uniform.json.`,
		Version:       fmt.Sprintf("%s (built %s)", Version, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	f := cmd.PersistentFlags()
	f.StringVar(&a.flags.configPath, "config", "", "Path to config file")
	f.StringVarP(&a.flags.project, "name", "n", "", "Registered project to use instead of the active one")
	f.StringVar(&a.flags.workspace, "workspace", "", "Workspace directory, bypassing the project registry")
	f.StringVar(&a.flags.mode, "mode", "", "Dependency mode: default or hook")
	f.StringVarP(&a.flags.tag, "tag", "t", "", "Target every component carrying this tag")
	f.StringVarP(&a.flags.workdir, "workdir", "w", "", "Working directory inside the container for exec")
	f.IntVarP(&a.flags.uid, "uid", "u", 0, "User id to exec as (default USER_ID:GROUP_ID)")
	f.BoolVarP(&a.flags.debug, "debug", "d", false, "Log debug output")
	f.BoolVarP(&a.flags.force, "force", "f", false, "Run even when the component already is in the wanted state")
	f.BoolVar(&a.flags.dryRun, "dry-run", false, "Print what would run without invoking docker")
	f.BoolVarP(&a.flags.noTTY, "no-tty", "T", false, "Disable pseudo-TTY allocation for exec")

	cmd.AddCommand(
		newStartCommand(a),
		newStopCommand(a),
		newRestartCommand(a),
		newDestroyCommand(a),
		newExecCommand(a),
		newComposeCommand(a),
		newPsCommand(a),
		newCheckCommand(a),
		newHookCommand(a),
		newProjectCommand(a),
	)
	return cmd
}

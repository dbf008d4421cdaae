package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newProjectCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage registered workspaces",
	}
	cmd.AddCommand(
		newProjectAddCommand(a),
		newProjectUseCommand(a),
		newProjectListCommand(a),
		newProjectRemoveCommand(a),
	)
	return cmd
}

func newProjectAddCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add PATH [NAME]",
		Short: "Register a workspace directory (the first one becomes active)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 2 {
				name = args[1]
			}
			reg, err := a.registry()
			if err != nil {
				return err
			}
			p, err := reg.AddProject(cmd.Context(), name, args[0], a.options.Force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Project %q registered at %s\n", p.Name, p.Path)
			return nil
		},
	}
}

func newProjectUseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use NAME",
		Short: "Make a project the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			if err := reg.UseProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active project is now %q\n", args[0])
			return nil
		},
	}
}

func newProjectListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List registered projects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			projects, err := reg.ListProjects(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\tNAME\tPATH")
			for _, p := range projects {
				marker := ""
				if p.Active {
					marker = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", marker, p.Name, p.Path)
			}
			return tw.Flush()
		},
	}
}

func newProjectRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm NAME",
		Aliases: []string{"remove"},
		Short:   "Unregister a project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			if err := reg.RemoveProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Project %q removed\n", args[0])
			return nil
		},
	}
}

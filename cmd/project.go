package cmd

import (
	"context"
	"fmt"

	"github.com/grovetools/launchsync/cli"
	"github.com/grovetools/launchsync/errors"
	"github.com/grovetools/launchsync/logging"
	"github.com/spf13/cobra"
)

// NewProjectCmd manages the current sketch.
func NewProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage the currently open sketch",
	}
	cmd.AddCommand(newProjectSetCmd(), newProjectShowCmd(), newProjectClearCmd())
	return cmd
}

func newProjectSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <sketch-dir>",
		Short: "Open a sketch; a running watch session follows the switch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			p, err := a.projects.Set(args[0])
			if err != nil {
				return err
			}
			folder, err := a.locate(context.Background())
			if err != nil {
				return err
			}

			if cli.GetOptions(cmd).JSONOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					"project":     p.Path,
					"temp_folder": folder.Path,
				})
			}
			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			pretty.Success(fmt.Sprintf("Opened sketch %s", p.Name))
			pretty.Path("Temp folder", folder.Path)
			return nil
		},
	}
}

func newProjectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the currently open sketch",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			p, ok := a.projects.Current()
			if !ok {
				return errors.ErrNoActiveProject
			}
			if cli.GetOptions(cmd).JSONOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"project":   p,
					"read_only": a.projects.IsReadOnly(p.Path),
				})
			}
			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			pretty.Field("Sketch", p.Name)
			pretty.Path("Path", p.Path)
			if a.projects.IsReadOnly(p.Path) {
				pretty.Warn("Sketch is read-only")
			}
			return nil
		},
	}
}

func newProjectClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Close the current sketch",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.projects.Clear(); err != nil {
				return err
			}
			logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout()).Success("Closed the current sketch")
			return nil
		},
	}
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/grovetools/launchsync/cli"
	"github.com/grovetools/launchsync/logging"
	"github.com/grovetools/launchsync/pkg/host"
	"github.com/grovetools/launchsync/pkg/launchconfig"
	"github.com/grovetools/launchsync/util/pathutil"
	"github.com/spf13/cobra"
)

// NewShowCmd runs one reconciliation pass and prints the models.
func NewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [root...]",
		Short: "Reconcile once and print the launch model of each workspace root",
		Example: `  # Models for the configured roots (or the current directory)
  launchsync show

  # Models for explicit roots, as JSON
  launchsync show ~/Arduino/Blink ~/Arduino/Fade --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if len(args) > 0 {
				rootPaths, err := pathutil.ExpandAll(args)
				if err != nil {
					return err
				}
				a.roots.Set(rootPaths...)
			}

			a.lifecycle.Reach(host.Ready)
			m := a.manager()
			defer m.Close()
			if err := m.Sync(); err != nil {
				return err
			}

			views := launchconfig.Views(m.Models())
			if cli.GetOptions(cmd).JSONOutput {
				return writeJSON(cmd.OutOrStdout(), views)
			}
			if _, ok := a.projects.Current(); !ok {
				logging.NewPrettyLogger().WithWriter(cmd.ErrOrStderr()).
					Warn("No sketch is open; run 'launchsync project set <sketch-dir>'")
				return nil
			}
			renderViews(cmd.OutOrStdout(), views)
			return nil
		},
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	absentStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("8")).Italic(true)
)

func renderViews(w io.Writer, views []launchconfig.View) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("ROOT", "LAUNCH FILE", "CONFIGURATIONS", "READ-ONLY").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 && views[row].URI == "" {
				return absentStyle
			}
			return cellStyle
		})

	for _, v := range views {
		uri := v.URI
		if uri == "" {
			uri = "(no file yet)"
		}
		names := make([]string, 0, len(v.Configurations))
		for _, c := range v.Configurations {
			names = append(names, c.Name)
		}
		readOnly := ""
		if v.ReadOnly {
			readOnly = "yes"
		}
		t.Row(v.Root, uri, strings.Join(names, ", "), readOnly)
	}
	fmt.Fprintln(w, t.Render())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

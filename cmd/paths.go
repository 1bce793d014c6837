package cmd

import (
	"context"
	"path/filepath"

	"github.com/grovetools/launchsync/errors"
	"github.com/grovetools/launchsync/pkg/paths"
	"github.com/spf13/cobra"
)

// PathsOutput lists the locations launchsync uses.
type PathsOutput struct {
	ConfigDir  string `json:"config_dir"`
	StateDir   string `json:"state_dir"`
	LogDir     string `json:"log_dir"`
	Socket     string `json:"socket"`
	TempRoot   string `json:"temp_root"`
	Project    string `json:"project,omitempty"`
	TempFolder string `json:"temp_folder,omitempty"`
	LaunchFile string `json:"launch_file,omitempty"`
}

// NewPathsCmd prints the directories and, when a sketch is open, its launch
// file location.
func NewPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print launchsync paths and the current launch.json location as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			out := PathsOutput{
				ConfigDir: paths.ConfigDir(),
				StateDir:  paths.StateDir(),
				LogDir:    paths.LogDir(),
				Socket:    paths.SocketPath(),
				TempRoot:  a.temps.Root,
			}

			folder, err := a.locate(context.Background())
			switch {
			case err == nil:
				out.Project = folder.Project.Path
				out.TempFolder = folder.Path
				out.LaunchFile = filepath.Join(folder.Path, a.cfg.FileName)
			case !errors.Is(err, errors.ErrCodeNoActiveProject):
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

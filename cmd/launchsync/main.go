package main

import (
	"os"

	"github.com/grovetools/launchsync/cli"
	"github.com/grovetools/launchsync/cmd"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"launchsync",
		"Keep per-root debug launch configurations in sync with the open sketch",
	)

	rootCmd.AddCommand(
		cmd.NewWatchCmd(),
		cmd.NewStatusCmd(),
		cmd.NewShowCmd(),
		cmd.NewProjectCmd(),
		cmd.NewPathsCmd(),
		cmd.NewSchemaCmd(),
		cmd.NewValidateCmd(),
		cli.NewVersionCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		_ = cli.NewErrorHandler(verbose, rootCmd.ErrOrStderr()).Handle(err)
		os.Exit(1)
	}
}

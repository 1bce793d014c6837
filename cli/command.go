// Package cli holds the shared cobra plumbing of the launchsync commands.
package cli

import (
	"os"

	"github.com/grovetools/launchsync/config"
	"github.com/grovetools/launchsync/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommandOptions holds the persistent flags every command accepts.
type CommandOptions struct {
	ConfigFile string
	Verbose    bool
	JSONOutput bool
}

// NewStandardCommand creates a command with the standard persistent flags.
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to a launchsync.yml config file")

	SetStyledHelp(cmd)
	return cmd
}

// GetOptions extracts the standard flags.
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return CommandOptions{
		ConfigFile: configFile,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// LoadConfig loads the file named by --config, or the layered default.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	opts := GetOptions(cmd)
	if opts.ConfigFile != "" {
		return config.Load(opts.ConfigFile)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.LoadFrom(cwd)
}

// SetupLogging applies the logging section of cfg, raised to debug by
// --verbose.
func SetupLogging(cmd *cobra.Command, cfg *config.Config) {
	var logCfg logging.Config
	if cfg != nil {
		if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
			logrus.Warnf("Failed to parse 'logging' config: %v", err)
		}
	}
	if GetOptions(cmd).Verbose {
		logCfg.Level = "debug"
	}
	logging.Configure(logCfg)
}

// GetLogger returns the component logger for a command.
func GetLogger(cmd *cobra.Command) *logrus.Entry {
	return logging.NewLogger(cmd.Root().Name() + "-" + cmd.Name())
}

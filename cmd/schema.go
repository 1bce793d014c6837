package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/grovetools/launchsync/errors"
	"github.com/grovetools/launchsync/logging"
	"github.com/grovetools/launchsync/pkg/fileservice"
	"github.com/grovetools/launchsync/pkg/launch"
	"github.com/spf13/cobra"
)

// NewSchemaCmd prints the launch.json JSON schema.
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of launch.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := launch.GenerateSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

// NewValidateCmd checks a launch.json against the schema.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a launch.json (default: the current sketch's) against the schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := validateTarget(cmd, args)
			if err != nil {
				return err
			}

			files, err := fileservice.NewLocal(fileservice.Options{})
			if err != nil {
				return err
			}
			defer files.Close()

			data, err := files.Read(cmd.Context(), path)
			if err != nil {
				return err
			}
			if _, err := launch.Parse(data); err != nil {
				return errors.ParseFailure(path, err)
			}

			v, err := launch.NewValidator()
			if err != nil {
				return err
			}
			if err := v.Validate(data); err != nil {
				return errors.SchemaValidation(path, err)
			}

			logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout()).Success(fmt.Sprintf("%s is valid", path))
			return nil
		},
	}
}

func validateTarget(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	a, err := newApp(cmd)
	if err != nil {
		return "", err
	}
	defer a.close()

	folder, err := a.locate(context.Background())
	if err != nil {
		return "", err
	}
	return filepath.Join(folder.Path, a.cfg.FileName), nil
}

// Package cmd implements the launchsync subcommands.
package cmd

import (
	"context"
	"os"

	"github.com/grovetools/launchsync/cli"
	"github.com/grovetools/launchsync/config"
	"github.com/grovetools/launchsync/pkg/fileservice"
	"github.com/grovetools/launchsync/pkg/host"
	"github.com/grovetools/launchsync/pkg/launch"
	"github.com/grovetools/launchsync/pkg/launchconfig"
	"github.com/grovetools/launchsync/pkg/paths"
	"github.com/grovetools/launchsync/pkg/project"
	"github.com/grovetools/launchsync/pkg/roots"
	"github.com/grovetools/launchsync/state"
	"github.com/grovetools/launchsync/util/pathutil"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app holds the collaborators every command builds from the config.
type app struct {
	cfg       *config.Config
	logger    *logrus.Entry
	projects  *project.StateService
	temps     project.TempFolders
	files     *fileservice.Local
	roots     *roots.List
	lifecycle *host.Lifecycle
	validator *launch.Validator
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	cli.SetupLogging(cmd, cfg)

	readOnlyDirs, err := pathutil.ExpandAll(cfg.ReadOnlyDirs)
	if err != nil {
		return nil, err
	}
	projects, err := project.NewStateService(state.NewStore(state.DefaultPath()), readOnlyDirs)
	if err != nil {
		return nil, err
	}

	tempRoot := paths.TempRoot()
	if cfg.TempRoot != "" {
		if tempRoot, err = pathutil.Expand(cfg.TempRoot); err != nil {
			return nil, err
		}
	}

	rootPaths, err := pathutil.ExpandAll(cfg.Roots)
	if err != nil {
		return nil, err
	}
	if len(rootPaths) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		rootPaths = []string{cwd}
	}

	var validator *launch.Validator
	if cfg.Validate {
		if validator, err = launch.NewValidator(); err != nil {
			return nil, err
		}
	}

	files, err := fileservice.NewLocal(fileservice.Options{
		BatchWindow: cfg.BatchWindow,
		Ignore:      cfg.Ignore,
	})
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		logger:    cli.GetLogger(cmd),
		projects:  projects,
		temps:     project.TempFolders{Root: tempRoot},
		files:     files,
		roots:     roots.NewList(rootPaths...),
		lifecycle: host.NewLifecycle(),
		validator: validator,
	}
	return a, nil
}

func (a *app) manager() *launchconfig.Manager {
	return launchconfig.New(launchconfig.Deps{
		Projects:  a.projects,
		Resolver:  a.temps,
		Files:     a.files,
		Roots:     a.roots,
		Ready:     a.lifecycle,
		Validator: a.validator,
	}, launchconfig.Options{
		Debounce: a.cfg.Debounce,
		FileName: a.cfg.FileName,
		Logger:   a.logger,
	})
}

// locate resolves the current temp folder without starting a session.
func (a *app) locate(ctx context.Context) (launchconfig.TempFolder, error) {
	return launchconfig.NewLocator(a.projects, a.temps, a.files, a.logger).Locate(ctx)
}

func (a *app) close() {
	_ = a.files.Close()
}

package launchconfig

import (
	"context"
	"path/filepath"

	"github.com/grovetools/launchsync/errors"
	"github.com/grovetools/launchsync/pkg/project"
	"github.com/sirupsen/logrus"
)

// TempFolder is the resolved temp folder of a project.
type TempFolder struct {
	Project project.Project
	Path    string
}

// Name is the folder's base name, used to match change events.
func (f TempFolder) Name() string {
	return filepath.Base(f.Path)
}

// Locator resolves the temp folder of the current project.
type Locator struct {
	projects ProjectService
	resolver TempFolderResolver
	files    FileService
	logger   *logrus.Entry
}

// NewLocator creates a Locator.
func NewLocator(projects ProjectService, resolver TempFolderResolver, files FileService, logger *logrus.Entry) *Locator {
	return &Locator{
		projects: projects,
		resolver: resolver,
		files:    files,
		logger:   logger,
	}
}

// Locate returns the current project's temp folder, creating it if needed.
// It returns errors.ErrNoActiveProject when no sketch is open.
func (l *Locator) Locate(ctx context.Context) (TempFolder, error) {
	p, ok := l.projects.Current()
	if !ok {
		return TempFolder{}, errors.ErrNoActiveProject
	}

	path := l.resolver.TempFolder(p)
	if err := l.files.CreateFolder(ctx, path); err != nil {
		l.logger.WithError(err).WithFields(logrus.Fields{
			"project": p.Path,
			"folder":  path,
		}).Error("Failed to create temp folder")
		if errors.Is(err, errors.ErrCodeFolderCreateFailed) {
			return TempFolder{}, err
		}
		return TempFolder{}, errors.FolderCreateFailed(path, err)
	}

	return TempFolder{Project: p, Path: path}, nil
}

// Package launchconfig keeps one launch configuration model per workspace
// root in sync with the launch.json in the current sketch's temp folder.
//
// A Manager wires the pieces together:
//
//   - Locator resolves (and creates) the temp folder of the current project
//   - Reader loads launch.json from that folder
//   - Registry reconciles the per-root models against the workspace roots
//   - Watcher re-reads the file when it changes on disk
//
// Reconciliation passes go through a debouncer so that bursts of root or
// project changes collapse into one rebuild.
package launchconfig

import (
	"context"

	"github.com/grovetools/launchsync/pkg/fileservice"
	"github.com/grovetools/launchsync/pkg/host"
	"github.com/grovetools/launchsync/pkg/project"
	"github.com/grovetools/launchsync/pkg/roots"
)

// ProjectService tracks the currently open sketch.
type ProjectService interface {
	Current() (project.Project, bool)
	IsReadOnly(path string) bool
	OnDidChangeCurrentProject(fn func(*project.Project)) func()
}

// TempFolderResolver maps a project to its private temp folder.
type TempFolderResolver interface {
	TempFolder(p project.Project) string
}

// FileService is the file-system surface the sync core needs.
type FileService interface {
	CreateFolder(ctx context.Context, path string) error
	// Read fails with a FILE_NOT_FOUND coded error when path does not exist.
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Watch(dir string) (func(), error)
	OnDidFilesChange(fn func(fileservice.ChangeBatch)) func()
}

// RootProvider supplies the current workspace roots.
type RootProvider interface {
	Roots(ctx context.Context) ([]roots.Root, error)
	OnDidChangeRoots(fn func([]roots.Root)) func()
}

// Readiness reports host lifecycle progress.
type Readiness interface {
	ReachedState(ctx context.Context, s host.State) error
}

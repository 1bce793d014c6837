// Package project tracks the currently open sketch and resolves its private
// temp folder.
package project

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/grovetools/launchsync/errors"
	"github.com/grovetools/launchsync/pkg/event"
	"github.com/grovetools/launchsync/state"
)

// StateKey is the state file key holding the current sketch path.
const StateKey = "current_project"

// Project is an open sketch, identified by its folder.
type Project struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// FromPath builds a Project from a sketch folder.
func FromPath(path string) Project {
	clean := filepath.Clean(path)
	return Project{Path: clean, Name: filepath.Base(clean)}
}

// StateService keeps the current project in a state file so that separate
// CLI invocations and a running watch session agree on it.
type StateService struct {
	store        *state.Store
	readOnlyDirs []string

	mu      sync.Mutex
	current *Project

	changed event.Emitter[*Project]
}

// NewStateService loads the current project from store.
func NewStateService(store *state.Store, readOnlyDirs []string) (*StateService, error) {
	s := &StateService{store: store}
	for _, dir := range readOnlyDirs {
		s.readOnlyDirs = append(s.readOnlyDirs, filepath.Clean(dir))
	}
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the current project, or false when none is open.
func (s *StateService) Current() (Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Project{}, false
	}
	return *s.current, true
}

// Set makes the sketch folder at path the current project.
func (s *StateService) Set(path string) (Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Project{}, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid sketch path")
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return Project{}, errors.New(errors.ErrCodeInvalidInput, "sketch path is not a directory").
			WithDetail("path", abs)
	}

	p := FromPath(abs)
	if err := s.store.Set(StateKey, p.Path); err != nil {
		return Project{}, errors.IOFailure("write", s.store.Path, err)
	}
	s.apply(&p)
	return p, nil
}

// Clear closes the current project.
func (s *StateService) Clear() error {
	if err := s.store.Delete(StateKey); err != nil {
		return errors.IOFailure("write", s.store.Path, err)
	}
	s.apply(nil)
	return nil
}

// Reload re-reads the state file and reports whether the project changed.
func (s *StateService) Reload() (bool, error) {
	path, err := s.store.GetString(StateKey)
	if err != nil {
		return false, errors.IOFailure("read", s.store.Path, err)
	}

	var next *Project
	if path != "" {
		p := FromPath(path)
		next = &p
	}
	return s.apply(next), nil
}

// StatePath is the file backing the service.
func (s *StateService) StatePath() string {
	return s.store.Path
}

func (s *StateService) apply(next *Project) bool {
	s.mu.Lock()
	if sameProject(s.current, next) {
		s.mu.Unlock()
		return false
	}
	s.current = next
	s.mu.Unlock()

	s.changed.Fire(next)
	return true
}

func sameProject(a, b *Project) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Path == b.Path
}

// IsReadOnly reports whether path lies inside one of the read-only sketch
// directories (bundled examples, for instance).
func (s *StateService) IsReadOnly(path string) bool {
	clean := filepath.Clean(path)
	for _, dir := range s.readOnlyDirs {
		rel, err := filepath.Rel(dir, clean)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return true
		}
	}
	return false
}

// OnDidChangeCurrentProject registers fn for project changes. fn receives
// nil when the project was closed.
func (s *StateService) OnDidChangeCurrentProject(fn func(*Project)) func() {
	return s.changed.On(fn)
}

// TempFolders resolves a project's private temp folder under Root.
type TempFolders struct {
	Root string
}

// TempFolder returns <root>/arduino-ide2-<MD5 of the sketch path, upper hex>.
func (t TempFolders) TempFolder(p Project) string {
	sum := md5.Sum([]byte(p.Path))
	return filepath.Join(t.Root, "arduino-ide2-"+strings.ToUpper(hex.EncodeToString(sum[:])))
}

// Package testutil provides in-memory stand-ins for the collaborators of a
// launch sync session.
package testutil

import (
	"context"
	"maps"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/grovetools/launchsync/errors"
	"github.com/grovetools/launchsync/pkg/event"
	"github.com/grovetools/launchsync/pkg/fileservice"
	"github.com/grovetools/launchsync/pkg/host"
	"github.com/grovetools/launchsync/pkg/project"
	"github.com/grovetools/launchsync/pkg/roots"
	"github.com/stretchr/testify/require"
)

// FakeFileService keeps files in memory. Reads of unknown paths fail with
// FILE_NOT_FOUND; errors set with FailRead and FailCreate replace the result.
type FakeFileService struct {
	mu        sync.Mutex
	files     map[string][]byte
	folders   map[string]bool
	readErr   map[string]error
	createErr map[string]error
	watched   map[string]int
	reads     map[string]int
	readDelay time.Duration
	holds     map[string]*readHold
	changes   event.Emitter[fileservice.ChangeBatch]
}

type readHold struct {
	held    chan struct{}
	release chan struct{}
}

// NewFakeFileService returns an empty file service.
func NewFakeFileService() *FakeFileService {
	return &FakeFileService{
		files:     make(map[string][]byte),
		folders:   make(map[string]bool),
		readErr:   make(map[string]error),
		createErr: make(map[string]error),
		watched:   make(map[string]int),
		reads:     make(map[string]int),
		holds:     make(map[string]*readHold),
	}
}

// CreateFolder records path as existing.
func (f *FakeFileService) CreateFolder(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	path = filepath.Clean(path)
	if err := f.createErr[path]; err != nil {
		return err
	}
	f.folders[path] = true
	return nil
}

// Read returns the stored content of path.
func (f *FakeFileService) Read(ctx context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	path = filepath.Clean(path)
	f.reads[path]++
	delay := f.readDelay
	err := f.readErr[path]
	data, ok := f.files[path]
	hold := f.holds[path]
	delete(f.holds, path)
	f.mu.Unlock()

	if hold != nil {
		close(hold.held)
		<-hold.release
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.FileNotFound(path, nil)
	}
	return slices.Clone(data), nil
}

// Write stores data at path.
func (f *FakeFileService) Write(ctx context.Context, path string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[filepath.Clean(path)] = slices.Clone(data)
	return nil
}

// Watch counts watchers per directory.
func (f *FakeFileService) Watch(dir string) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dir = filepath.Clean(dir)
	f.watched[dir]++
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.watched[dir]--; f.watched[dir] <= 0 {
				delete(f.watched, dir)
			}
		})
	}, nil
}

// OnDidFilesChange registers fn for batches sent with Emit.
func (f *FakeFileService) OnDidFilesChange(fn func(fileservice.ChangeBatch)) func() {
	return f.changes.On(fn)
}

// Emit delivers a change batch for paths.
func (f *FakeFileService) Emit(paths ...string) {
	batch := fileservice.ChangeBatch{}
	for _, p := range paths {
		batch.Changes = append(batch.Changes, fileservice.Change{Path: filepath.Clean(p), Type: fileservice.Updated})
	}
	f.changes.Fire(batch)
}

// Put stores data at path without a change notification.
func (f *FakeFileService) Put(path string, data string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[filepath.Clean(path)] = []byte(data)
}

// Remove deletes path.
func (f *FakeFileService) Remove(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, filepath.Clean(path))
}

// Get returns the stored content of path.
func (f *FakeFileService) Get(path string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[filepath.Clean(path)]
	return string(data), ok
}

// FailRead makes reads of path return err. A nil err clears it.
func (f *FakeFileService) FailRead(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErr[filepath.Clean(path)] = err
}

// FailCreate makes CreateFolder of path return err.
func (f *FakeFileService) FailCreate(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createErr[filepath.Clean(path)] = err
}

// HoldNextRead parks the next read of path after it has taken its data.
// held is closed once the read is parked; release lets it return.
func (f *FakeFileService) HoldNextRead(path string) (held <-chan struct{}, release func()) {
	h := &readHold{held: make(chan struct{}), release: make(chan struct{})}
	f.mu.Lock()
	f.holds[filepath.Clean(path)] = h
	f.mu.Unlock()
	var once sync.Once
	return h.held, func() { once.Do(func() { close(h.release) }) }
}

// SetReadDelay slows every read down.
func (f *FakeFileService) SetReadDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readDelay = d
}

// Reads returns how often path was read.
func (f *FakeFileService) Reads(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[filepath.Clean(path)]
}

// FolderExists reports whether CreateFolder succeeded for path.
func (f *FakeFileService) FolderExists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.folders[filepath.Clean(path)]
}

// Watched returns the directories currently watched.
func (f *FakeFileService) Watched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Sorted(maps.Keys(f.watched))
}

// FakeProjects is a settable current project.
type FakeProjects struct {
	mu       sync.Mutex
	current  *project.Project
	readOnly map[string]bool
	changed  event.Emitter[*project.Project]
}

// NewFakeProjects starts with path as the current project, or none when
// path is empty.
func NewFakeProjects(path string) *FakeProjects {
	f := &FakeProjects{readOnly: make(map[string]bool)}
	if path != "" {
		p := project.FromPath(path)
		f.current = &p
	}
	return f
}

// Current returns the current project.
func (f *FakeProjects) Current() (project.Project, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return project.Project{}, false
	}
	return *f.current, true
}

// IsReadOnly reports paths marked with MarkReadOnly.
func (f *FakeProjects) IsReadOnly(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readOnly[filepath.Clean(path)]
}

// MarkReadOnly flags a sketch path as read-only.
func (f *FakeProjects) MarkReadOnly(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readOnly[filepath.Clean(path)] = true
}

// Set switches the current project and notifies listeners. An empty path
// closes the project.
func (f *FakeProjects) Set(path string) {
	f.mu.Lock()
	var next *project.Project
	if path != "" {
		p := project.FromPath(path)
		next = &p
	}
	f.current = next
	f.mu.Unlock()
	f.changed.Fire(next)
}

// OnDidChangeCurrentProject registers fn for Set calls.
func (f *FakeProjects) OnDidChangeCurrentProject(fn func(*project.Project)) func() {
	return f.changed.On(fn)
}

// TempFolders maps a project to Root joined with the project name.
type TempFolders struct {
	Root string
}

// TempFolder implements the temp folder resolver.
func (t TempFolders) TempFolder(p project.Project) string {
	return filepath.Join(t.Root, "tmp-"+p.Name)
}

// ReadyNow is a host that is always ready.
type ReadyNow struct{}

// ReachedState returns immediately.
func (ReadyNow) ReachedState(ctx context.Context, s host.State) error {
	return ctx.Err()
}

// NewRoots returns an observable root list with paths.
func NewRoots(paths ...string) *roots.List {
	return roots.NewList(paths...)
}

// Eventually waits for cond with the defaults used across the tests.
func Eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond, msg)
}

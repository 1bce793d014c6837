package launchconfig

import (
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/grovetools/launchsync/pkg/event"
	"github.com/grovetools/launchsync/pkg/launch"
)

// Model is the in-memory launch configuration set of one workspace root.
// Models are owned by a Registry; consumers only hold references.
type Model struct {
	rootKey  string
	readOnly bool

	mu       sync.RWMutex
	folder   string
	path     string
	configs  []launch.Configuration
	seq      uint64
	disposed bool

	onDidChange   event.Emitter[*Model]
	onWillDispose event.Emitter[*Model]
}

func newModel(rootKey string, content launch.Content, readOnly bool) *Model {
	m := &Model{rootKey: rootKey, readOnly: readOnly}
	m.apply(content)
	return m
}

// RootKey identifies the workspace root the model belongs to.
func (m *Model) RootKey() string {
	return m.rootKey
}

// ReadOnly reports whether the backing sketch may not be edited.
func (m *Model) ReadOnly() bool {
	return m.readOnly
}

// URI returns the backing launch file, or false when no file exists yet.
func (m *Model) URI() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path, m.path != ""
}

// Folder is the temp folder the model reads from.
func (m *Model) Folder() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.folder
}

// Configurations returns a copy of the ordered launch entries.
func (m *Model) Configurations() []launch.Configuration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.configs)
}

// Disposed reports whether Dispose has been called.
func (m *Model) Disposed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.disposed
}

// Update replaces the model content and fires OnDidChange when anything
// changed. Content read before the one already applied is dropped, so the
// read that started last wins.
func (m *Model) Update(content launch.Content) bool {
	m.mu.Lock()
	if m.disposed || (content.Seq != 0 && content.Seq < m.seq) {
		m.mu.Unlock()
		return false
	}
	if !m.differs(content) {
		m.seq = max(m.seq, content.Seq)
		m.mu.Unlock()
		return false
	}
	m.apply(content)
	m.mu.Unlock()

	m.onDidChange.Fire(m)
	return true
}

func (m *Model) differs(content launch.Content) bool {
	path := content.Path
	if content.Missing {
		path = ""
	}
	if m.path != path || m.folder != content.Folder {
		return true
	}
	if len(m.configs) != len(content.Configurations) {
		return true
	}
	return len(m.configs) > 0 && !reflect.DeepEqual(m.configs, content.Configurations)
}

func (m *Model) apply(content launch.Content) {
	m.folder = content.Folder
	m.path = ""
	if !content.Missing {
		m.path = content.Path
	}
	m.configs = slices.Clone(content.Configurations)
	if m.configs == nil {
		m.configs = []launch.Configuration{}
	}
	m.seq = max(m.seq, content.Seq)
}

// Dispose releases the model. Listeners registered with OnWillDispose run
// once; later calls are no-ops.
func (m *Model) Dispose() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	m.mu.Unlock()

	m.onWillDispose.Fire(m)
	m.onWillDispose.Dispose()
	m.onDidChange.Dispose()
}

// OnDidChange registers fn for content changes.
func (m *Model) OnDidChange(fn func(*Model)) func() {
	return m.onDidChange.On(fn)
}

// OnWillDispose registers fn to run when the model is disposed.
func (m *Model) OnWillDispose(fn func(*Model)) func() {
	return m.onWillDispose.On(fn)
}

// View is a serializable snapshot of a Model.
type View struct {
	Root           string                 `json:"root"`
	URI            string                 `json:"uri,omitempty"`
	Folder         string                 `json:"folder"`
	ReadOnly       bool                   `json:"read_only"`
	Configurations []launch.Configuration `json:"configurations"`
}

// View snapshots the model.
func (m *Model) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return View{
		Root:           m.rootKey,
		URI:            m.path,
		Folder:         m.folder,
		ReadOnly:       m.readOnly,
		Configurations: slices.Clone(m.configs),
	}
}

// Views snapshots models sorted by root.
func Views(models map[string]*Model) []View {
	out := make([]View, 0, len(models))
	for _, m := range models {
		out = append(out, m.View())
	}
	slices.SortFunc(out, func(a, b View) int { return strings.Compare(a.Root, b.Root) })
	return out
}

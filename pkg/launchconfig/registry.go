package launchconfig

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/grovetools/launchsync/errors"
	"github.com/grovetools/launchsync/pkg/event"
	"github.com/grovetools/launchsync/pkg/launch"
	"github.com/grovetools/launchsync/pkg/roots"
	"github.com/sirupsen/logrus"
)

// Registry owns one Model per workspace root.
type Registry struct {
	locator  *Locator
	reader   *Reader
	projects ProjectService
	logger   *logrus.Entry

	mu     sync.Mutex
	models map[string]*registered
	// latest is the newest content handed to ApplyContent.
	latest launch.Content

	currentModelChanged event.Emitter[struct{}]
}

type registered struct {
	model *Model
	unsub []func()
}

// NewRegistry creates an empty Registry.
func NewRegistry(locator *Locator, reader *Reader, projects ProjectService, logger *logrus.Entry) *Registry {
	return &Registry{
		locator:  locator,
		reader:   reader,
		projects: projects,
		logger:   logger,
		models:   make(map[string]*registered),
	}
}

// Reconcile makes the model set match roots. Models of retained roots are
// left untouched, new roots get a model seeded from the current launch file,
// and models of removed roots are disposed. OnDidChangeCurrentModel fires
// once per pass.
//
// With no active project new roots are skipped without error. A locate or
// read failure is returned after removed roots have been disposed.
func (r *Registry) Reconcile(ctx context.Context, incoming []roots.Root) error {
	defer r.currentModelChanged.Fire(struct{}{})

	wanted := make(map[string]struct{}, len(incoming))
	var added []string
	r.mu.Lock()
	for _, root := range incoming {
		key := root.Key()
		if _, dup := wanted[key]; dup {
			continue
		}
		wanted[key] = struct{}{}
		if _, ok := r.models[key]; !ok {
			added = append(added, key)
		}
	}
	var removed []*Model
	for key, reg := range r.models {
		if _, ok := wanted[key]; !ok {
			removed = append(removed, reg.model)
		}
	}
	r.mu.Unlock()

	var err error
	if len(added) > 0 {
		err = r.create(ctx, added)
	}

	for _, m := range removed {
		m.Dispose()
	}

	if err != nil {
		return err
	}
	r.logger.WithFields(logrus.Fields{
		"added":   len(added),
		"removed": len(removed),
	}).Debug("Reconciled launch models")
	return nil
}

// create resolves the launch file once and seeds a model for each key.
func (r *Registry) create(ctx context.Context, keys []string) error {
	folder, err := r.locator.Locate(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNoActiveProject) {
			r.logger.WithField("roots", len(keys)).Debug("No active project, skipping model creation")
			return nil
		}
		return err
	}

	content, err := r.reader.Read(ctx, folder)
	if err != nil {
		return err
	}

	readOnly := r.projects.IsReadOnly(folder.Project.Path)
	for _, key := range keys {
		r.add(key, newModel(key, content, readOnly))
	}
	return nil
}

func (r *Registry) add(key string, m *Model) {
	reg := &registered{model: m}
	reg.unsub = append(reg.unsub,
		m.OnDidChange(func(*Model) {
			r.currentModelChanged.Fire(struct{}{})
		}),
		m.OnWillDispose(func(disposed *Model) {
			r.remove(key, disposed)
		}),
	)

	r.mu.Lock()
	prev := r.models[key]
	r.models[key] = reg
	latest := r.latest
	r.mu.Unlock()

	// A concurrent pass may have created the same key
	if prev != nil {
		prev.model.Dispose()
	}

	// A re-read that started after the seeding read may have finished
	// before the model existed. Update drops it when it is older.
	if latest.Seq != 0 && latest.Folder == m.Folder() {
		m.Update(latest)
	}
}

// remove drops key only while it still maps to m.
func (r *Registry) remove(key string, m *Model) {
	r.mu.Lock()
	reg, ok := r.models[key]
	if !ok || reg.model != m {
		r.mu.Unlock()
		return
	}
	delete(r.models, key)
	r.mu.Unlock()

	for _, fn := range reg.unsub {
		fn()
	}
}

// ApplyContent pushes freshly read content into every model backed by the
// same temp folder. It returns the number of models that changed.
func (r *Registry) ApplyContent(content launch.Content) int {
	r.mu.Lock()
	if content.Seq != 0 && (content.Folder != r.latest.Folder || content.Seq > r.latest.Seq) {
		r.latest = content
	}
	models := r.snapshotLocked()
	r.mu.Unlock()

	changed := 0
	for _, m := range models {
		if m.Folder() != content.Folder {
			continue
		}
		if m.Update(content) {
			changed++
		}
	}
	return changed
}

// Clear disposes every model.
func (r *Registry) Clear() {
	for _, m := range r.snapshot() {
		m.Dispose()
	}
}

func (r *Registry) snapshot() []*Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() []*Model {
	out := make([]*Model, 0, len(r.models))
	for _, reg := range r.models {
		out = append(out, reg.model)
	}
	return out
}

// Models returns a copy of the root key to model map.
func (r *Registry) Models() map[string]*Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*Model, len(r.models))
	for key, reg := range r.models {
		out[key] = reg.model
	}
	return out
}

// Keys returns the sorted root keys.
func (r *Registry) Keys() []string {
	return slices.Sorted(maps.Keys(r.Models()))
}

// Model looks up the model of a root key.
func (r *Registry) Model(key string) (*Model, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.models[key]
	if !ok {
		return nil, false
	}
	return reg.model, true
}

// OnDidChangeCurrentModel registers fn for model set or content changes.
func (r *Registry) OnDidChangeCurrentModel(fn func()) func() {
	return r.currentModelChanged.On(func(struct{}) { fn() })
}

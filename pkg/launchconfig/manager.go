package launchconfig

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/grovetools/launchsync/config"
	"github.com/grovetools/launchsync/errors"
	"github.com/grovetools/launchsync/internal/debounce"
	"github.com/grovetools/launchsync/pkg/host"
	"github.com/grovetools/launchsync/pkg/launch"
	"github.com/grovetools/launchsync/pkg/project"
	"github.com/grovetools/launchsync/pkg/roots"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators a Manager is built from.
type Deps struct {
	Projects ProjectService
	Resolver TempFolderResolver
	Files    FileService
	Roots    RootProvider
	Ready    Readiness

	// Validator checks launch files against the schema when set.
	Validator *launch.Validator
}

// Options tune a Manager. Zero values fall back to the config defaults.
type Options struct {
	Debounce time.Duration
	FileName string
	Logger   *logrus.Entry
}

// Manager runs a sync session: it reconciles models on readiness, root and
// project changes, and feeds launch file edits into existing models.
type Manager struct {
	deps   Deps
	logger *logrus.Entry

	locator  *Locator
	reader   *Reader
	registry *Registry
	watcher  *Watcher
	debounce *debounce.Debouncer[string]

	// resetPending makes the next pass rebuild every model.
	resetPending atomic.Bool

	mu      sync.Mutex
	ctx     context.Context
	started bool
	lastErr error
	unsub   []func()
}

// New wires a Manager. Call Start to begin syncing.
func New(deps Deps, opts Options) *Manager {
	if opts.Debounce <= 0 {
		opts.Debounce = config.DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	m := &Manager{
		deps:   deps,
		logger: logger,
		ctx:    context.Background(),
	}
	m.locator = NewLocator(deps.Projects, deps.Resolver, deps.Files, logger.WithField("part", "locator"))
	m.reader = NewReader(deps.Files, opts.FileName, deps.Validator, logger.WithField("part", "reader"))
	m.registry = NewRegistry(m.locator, m.reader, deps.Projects, logger.WithField("part", "registry"))
	m.watcher = NewWatcher(deps.Files, m.reader, logger.WithField("part", "watcher"))
	m.debounce = debounce.New(opts.Debounce, m.reconcile, m.reconcileFailed)
	return m
}

// Start waits for the host to become ready, schedules the first pass and
// installs the launch file watcher when a project is open.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return errors.New(errors.ErrCodeInternal, "sync session already started")
	}
	m.started = true
	m.ctx = ctx
	m.mu.Unlock()

	if err := m.deps.Ready.ReachedState(ctx, host.Ready); err != nil {
		return err
	}

	m.mu.Lock()
	m.unsub = append(m.unsub,
		m.deps.Roots.OnDidChangeRoots(func([]roots.Root) {
			m.debounce.Trigger("roots")
		}),
		m.deps.Projects.OnDidChangeCurrentProject(m.projectChanged),
		m.watcher.OnTempContentDidChange(func(c launch.Content) {
			n := m.registry.ApplyContent(c)
			m.logger.WithField("models", n).Debug("Applied launch file change")
		}),
	)
	m.mu.Unlock()

	m.debounce.Trigger("ready")

	folder, err := m.locator.Locate(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNoActiveProject) {
			m.logger.Info("No active project, launch file watcher not installed")
			return nil
		}
		return err
	}
	return m.watcher.Install(ctx, folder)
}

// projectChanged rebuilds every model for the new sketch and moves the
// watcher to its temp folder.
func (m *Manager) projectChanged(p *project.Project) {
	m.resetPending.Store(true)
	m.debounce.Trigger("project")
	if p == nil {
		m.watcher.Uninstall()
		return
	}

	m.mu.Lock()
	ctx := m.ctx
	m.mu.Unlock()

	folder, err := m.locator.Locate(ctx)
	if err != nil {
		return
	}
	if err := m.watcher.Install(ctx, folder); err != nil {
		return
	}
	m.logger.WithField("project", p.Name).Info("Switched launch file watcher to new project")
}

func (m *Manager) reconcile(ctx context.Context, reason string) error {
	if m.resetPending.Swap(false) {
		m.registry.Clear()
	}

	current, err := m.deps.Roots.Roots(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to list workspace roots")
	}

	err = m.registry.Reconcile(ctx, current)
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.logger.WithFields(logrus.Fields{
		"reason": reason,
		"roots":  len(current),
		"models": len(m.registry.Models()),
	}).Debug("Reconciliation pass finished")
	return nil
}

func (m *Manager) reconcileFailed(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
	m.logger.WithError(err).Warn("Reconciliation pass failed, will retry on next change")
}

// Sync runs a reconciliation pass now, waiting for any in-flight pass, and
// returns its error.
func (m *Manager) Sync() error {
	m.debounce.Trigger("sync")
	m.debounce.Flush()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Wait blocks until no reconciliation pass is pending or running.
func (m *Manager) Wait() {
	m.debounce.Wait()
}

// Passes returns how many reconciliation passes have completed.
func (m *Manager) Passes() int {
	return m.debounce.Runs()
}

// Err returns the error of the most recent pass.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Models returns a copy of the root key to model map.
func (m *Manager) Models() map[string]*Model {
	return m.registry.Models()
}

// Registry exposes the model registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Watcher exposes the launch file watcher.
func (m *Manager) Watcher() *Watcher {
	return m.watcher
}

// Reader exposes the launch file reader.
func (m *Manager) Reader() *Reader {
	return m.reader
}

// Locate resolves the current temp folder.
func (m *Manager) Locate(ctx context.Context) (TempFolder, error) {
	return m.locator.Locate(ctx)
}

// OnDidChangeCurrentModel registers fn for model set or content changes.
func (m *Manager) OnDidChangeCurrentModel(fn func()) func() {
	return m.registry.OnDidChangeCurrentModel(fn)
}

// OnTempContentDidChange registers fn for re-read launch content.
func (m *Manager) OnTempContentDidChange(fn func(launch.Content)) func() {
	return m.watcher.OnTempContentDidChange(fn)
}

// Close stops the session and disposes every model.
func (m *Manager) Close() {
	m.debounce.Close()

	m.mu.Lock()
	unsub := m.unsub
	m.unsub = nil
	m.mu.Unlock()
	for _, fn := range unsub {
		fn()
	}

	m.watcher.Close()
	m.registry.Clear()
}

package launchconfig

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/grovetools/launchsync/pkg/host"
	"github.com/grovetools/launchsync/pkg/launch"
	"github.com/grovetools/launchsync/pkg/roots"
	"github.com/grovetools/launchsync/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type session struct {
	*fixture
	roots   *roots.List
	manager *Manager
}

func newSession(t *testing.T, sketch string, window time.Duration, rootPaths ...string) *session {
	t.Helper()
	f := newFixture(t, sketch)
	s := &session{fixture: f, roots: testutil.NewRoots(rootPaths...)}
	s.manager = New(Deps{
		Projects: f.projects,
		Resolver: f.temps,
		Files:    f.files,
		Roots:    s.roots,
		Ready:    testutil.ReadyNow{},
	}, Options{Debounce: window, Logger: quietLogger()})
	t.Cleanup(s.manager.Close)
	return s
}

func TestManagerStartReconcilesAfterReady(t *testing.T) {
	root := t.TempDir()
	f := newFixture(t, "/sketches/Blink")
	lifecycle := host.NewLifecycle()
	m := New(Deps{
		Projects: f.projects,
		Resolver: f.temps,
		Files:    f.files,
		Roots:    testutil.NewRoots(root),
		Ready:    lifecycle,
	}, Options{Debounce: 10 * time.Millisecond, Logger: quietLogger()})
	t.Cleanup(m.Close)

	started := make(chan error, 1)
	go func() { started <- m.Start(context.Background()) }()

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, m.Models())
	assert.Zero(t, m.Passes())

	lifecycle.Reach(host.Ready)
	require.NoError(t, <-started)
	testutil.Eventually(t, func() bool { return m.Passes() == 1 }, "first pass after ready")
	assert.Len(t, m.Models(), 1)
	assert.True(t, m.Watcher().Installed())
}

func TestManagerStartHonorsCancellation(t *testing.T) {
	f := newFixture(t, "/sketches/Blink")
	m := New(Deps{
		Projects: f.projects,
		Resolver: f.temps,
		Files:    f.files,
		Roots:    testutil.NewRoots(),
		Ready:    host.NewLifecycle(),
	}, Options{Logger: quietLogger()})
	t.Cleanup(m.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Start(ctx), context.Canceled)
}

func TestManagerDebouncesRootChanges(t *testing.T) {
	base := t.TempDir()
	a, b, c := filepath.Join(base, "a"), filepath.Join(base, "b"), filepath.Join(base, "c")
	s := newSession(t, "/sketches/Blink", 100*time.Millisecond, a)

	require.NoError(t, s.manager.Start(context.Background()))
	time.Sleep(40 * time.Millisecond)
	s.roots.Set(a, b)
	time.Sleep(40 * time.Millisecond)
	s.roots.Set(b, c)

	testutil.Eventually(t, func() bool { return s.manager.Passes() == 1 }, "one pass for the burst")
	s.manager.Wait()
	assert.Equal(t, 1, s.manager.Passes())
	assert.ElementsMatch(t, keysOf(b, c), s.manager.Registry().Keys())
}

func TestManagerSyncRunsImmediately(t *testing.T) {
	root := t.TempDir()
	s := newSession(t, "/sketches/Blink", time.Hour, root)
	s.files.Put(s.launchPath(t), sampleLaunch)

	require.NoError(t, s.manager.Sync())
	assert.Equal(t, 1, s.manager.Passes())
	assert.Equal(t, keysOf(root), s.manager.Registry().Keys())
}

func TestManagerSyncReportsParseFailure(t *testing.T) {
	s := newSession(t, "/sketches/Blink", time.Hour, t.TempDir())
	s.files.Put(s.launchPath(t), "not json")

	err := s.manager.Sync()
	require.Error(t, err)
	assert.Empty(t, s.manager.Models())
	assert.Equal(t, err, s.manager.Err())

	s.files.Put(s.launchPath(t), sampleLaunch)
	require.NoError(t, s.manager.Sync())
	assert.Len(t, s.manager.Models(), 1)
	assert.NoError(t, s.manager.Err())
}

func TestManagerAppliesFileChangesToModels(t *testing.T) {
	s := newSession(t, "/sketches/Blink", 10*time.Millisecond, t.TempDir(), t.TempDir())
	require.NoError(t, s.manager.Start(context.Background()))
	require.NoError(t, s.manager.Sync())
	passes := s.manager.Passes()

	var events []launch.Content
	s.manager.OnTempContentDidChange(func(c launch.Content) { events = append(events, c) })

	s.files.Put(s.launchPath(t), sampleLaunch)
	s.files.Emit(s.launchPath(t))

	require.Len(t, events, 1)
	for _, m := range s.manager.Models() {
		assert.Equal(t, []string{"Blink", "Attach"}, names(m.Configurations()))
		uri, ok := m.URI()
		assert.True(t, ok)
		assert.Equal(t, s.launchPath(t), uri)
	}
	assert.Equal(t, passes, s.manager.Passes())
}

func TestManagerWithoutProjectInstallsWatcherLater(t *testing.T) {
	root := t.TempDir()
	s := newSession(t, "", 10*time.Millisecond, root)
	require.NoError(t, s.manager.Start(context.Background()))
	s.manager.Wait()

	assert.False(t, s.manager.Watcher().Installed())
	assert.Empty(t, s.manager.Models())
	assert.Empty(t, s.files.Watched())

	s.projects.Set("/sketches/Blink")
	testutil.Eventually(t, func() bool { return len(s.manager.Models()) == 1 }, "model created for new project")
	assert.True(t, s.manager.Watcher().Installed())
	assert.Equal(t, []string{filepath.Dir(s.launchPath(t))}, s.files.Watched())
}

func TestManagerProjectChangeRebuildsModels(t *testing.T) {
	root := t.TempDir()
	s := newSession(t, "/sketches/Blink", 10*time.Millisecond, root)
	s.files.Put(s.launchPath(t), sampleLaunch)
	require.NoError(t, s.manager.Start(context.Background()))
	require.NoError(t, s.manager.Sync())
	before, _ := s.manager.Registry().Model(roots.Root{Path: root}.Key())

	s.projects.Set("/sketches/Fade")
	s.manager.Wait()
	require.NoError(t, s.manager.Sync())

	after, ok := s.manager.Registry().Model(roots.Root{Path: root}.Key())
	require.True(t, ok)
	assert.True(t, before.Disposed())
	assert.Empty(t, after.Configurations())
	assert.Equal(t, filepath.Dir(s.launchPath(t)), after.Folder())
}

func TestManagerProjectClosedDropsModels(t *testing.T) {
	s := newSession(t, "/sketches/Blink", 10*time.Millisecond, t.TempDir())
	require.NoError(t, s.manager.Start(context.Background()))
	require.NoError(t, s.manager.Sync())
	require.Len(t, s.manager.Models(), 1)
	require.True(t, s.manager.Watcher().Installed())
	oldPath := s.launchPath(t)

	s.projects.Set("")
	s.manager.Wait()
	require.NoError(t, s.manager.Sync())
	assert.Empty(t, s.manager.Models())
	assert.False(t, s.manager.Watcher().Installed())
	assert.Empty(t, s.files.Watched())

	s.files.Put(oldPath, sampleLaunch)
	s.files.Emit(oldPath)
	assert.Zero(t, s.manager.Watcher().Reads())
}

func TestManagerRoundTrip(t *testing.T) {
	root := t.TempDir()
	s := newSession(t, "/sketches/Blink", time.Hour, root)
	folder, err := s.manager.Locate(context.Background())
	require.NoError(t, err)

	entries := []launch.Configuration{
		{Name: "Zeta", Type: "cortex-debug", Request: "launch"},
		{Name: "Alpha", Request: "attach", Attributes: map[string]any{"servertype": "openocd"}},
		{Name: "Mu"},
	}
	require.NoError(t, s.manager.Reader().Write(context.Background(), folder, entries))
	require.NoError(t, s.manager.Sync())

	m, ok := s.manager.Registry().Model(roots.Root{Path: root}.Key())
	require.True(t, ok)
	assert.Equal(t, entries, m.Configurations())
}

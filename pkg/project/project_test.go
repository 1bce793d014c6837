package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grovetools/launchsync/errors"
	"github.com/grovetools/launchsync/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, readOnly ...string) (*StateService, *state.Store) {
	t.Helper()
	store := state.NewStore(filepath.Join(t.TempDir(), "state.yml"))
	svc, err := NewStateService(store, readOnly)
	require.NoError(t, err)
	return svc, store
}

func TestNoProjectByDefault(t *testing.T) {
	svc, _ := newService(t)
	_, ok := svc.Current()
	assert.False(t, ok)
}

func TestSetAndClear(t *testing.T) {
	svc, store := newService(t)
	sketch := filepath.Join(t.TempDir(), "Blink")
	require.NoError(t, os.MkdirAll(sketch, 0755))

	var events []*Project
	svc.OnDidChangeCurrentProject(func(p *Project) { events = append(events, p) })

	p, err := svc.Set(sketch)
	require.NoError(t, err)
	assert.Equal(t, "Blink", p.Name)

	current, ok := svc.Current()
	require.True(t, ok)
	assert.Equal(t, sketch, current.Path)

	persisted, err := store.GetString(StateKey)
	require.NoError(t, err)
	assert.Equal(t, sketch, persisted)

	// Setting the same project again is not a change
	_, err = svc.Set(sketch)
	require.NoError(t, err)

	require.NoError(t, svc.Clear())
	_, ok = svc.Current()
	assert.False(t, ok)

	require.Len(t, events, 2)
	assert.Equal(t, sketch, events[0].Path)
	assert.Nil(t, events[1])
}

func TestSetRejectsNonDirectory(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Set(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestReloadPicksUpExternalChanges(t *testing.T) {
	svc, store := newService(t)

	require.NoError(t, store.Set(StateKey, "/sketches/Fade"))
	changed, err := svc.Reload()
	require.NoError(t, err)
	assert.True(t, changed)

	p, ok := svc.Current()
	require.True(t, ok)
	assert.Equal(t, "Fade", p.Name)

	changed, err = svc.Reload()
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestIsReadOnly(t *testing.T) {
	svc, _ := newService(t, "/opt/arduino/examples")

	assert.True(t, svc.IsReadOnly("/opt/arduino/examples"))
	assert.True(t, svc.IsReadOnly("/opt/arduino/examples/Blink/Blink.ino"))
	assert.False(t, svc.IsReadOnly("/opt/arduino/examples-extra/x"))
	assert.False(t, svc.IsReadOnly("/home/me/Arduino/Blink"))
}

func TestTempFolder(t *testing.T) {
	folders := TempFolders{Root: "/tmp"}
	a := folders.TempFolder(FromPath("/home/me/Arduino/Blink"))
	b := folders.TempFolder(FromPath("/home/me/Arduino/Fade"))

	assert.Equal(t, "/tmp", filepath.Dir(a))
	assert.True(t, strings.HasPrefix(filepath.Base(a), "arduino-ide2-"))
	hash := strings.TrimPrefix(filepath.Base(a), "arduino-ide2-")
	assert.Len(t, hash, 32)
	assert.Equal(t, strings.ToUpper(hash), hash)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, folders.TempFolder(FromPath("/home/me/Arduino/Blink/")), "paths are cleaned")
}

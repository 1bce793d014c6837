package launchconfig

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grovetools/launchsync/pkg/launch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func installedWatcher(t *testing.T, f *fixture) (*Watcher, TempFolder, *[]launch.Content) {
	t.Helper()
	folder, err := f.locator.Locate(context.Background())
	require.NoError(t, err)

	w := NewWatcher(f.files, f.reader, quietLogger())
	t.Cleanup(w.Close)
	require.NoError(t, w.Install(context.Background(), folder))

	var got []launch.Content
	w.OnTempContentDidChange(func(c launch.Content) { got = append(got, c) })
	return w, folder, &got
}

func TestWatcherFiresOnceForMatchingChange(t *testing.T) {
	f := newFixture(t, "/sketches/Blink")
	w, folder, got := installedWatcher(t, f)
	f.files.Put(f.launchPath(t), sampleLaunch)

	f.files.Emit(filepath.Join(folder.Path, "launch.json"))

	assert.Equal(t, 1, w.Reads())
	require.Len(t, *got, 1)
	assert.Equal(t, []string{"Blink", "Attach"}, names((*got)[0].Configurations))
	assert.Equal(t, f.launchPath(t), (*got)[0].Path)
}

func TestWatcherIgnoresUnrelatedChanges(t *testing.T) {
	f := newFixture(t, "/sketches/Blink")
	w, folder, got := installedWatcher(t, f)
	f.files.Put(f.launchPath(t), sampleLaunch)

	f.files.Emit(
		filepath.Join(folder.Path, "settings.json"),
		filepath.Join(folder.Path, "Launch.json"),
		filepath.Join(filepath.Dir(folder.Path), "other", "launch.json"),
		filepath.Join(folder.Path, "launch.json.tmp"),
	)

	assert.Zero(t, w.Reads())
	assert.Empty(t, *got)
}

func TestWatcherMatchesParentFolderCaseInsensitively(t *testing.T) {
	f := newFixture(t, "/sketches/Blink")
	w, folder, got := installedWatcher(t, f)
	f.files.Put(f.launchPath(t), sampleLaunch)

	upper := filepath.Join(filepath.Dir(folder.Path), strings.ToUpper(folder.Name()), "launch.json")
	f.files.Emit(upper)

	assert.Equal(t, 1, w.Reads())
	assert.Len(t, *got, 1)
}

func TestWatcherNormalizesParentFolderName(t *testing.T) {
	composed := "Caf\u00e9"
	decomposed := "Cafe\u0301"

	tests := []struct {
		name      string
		sketch    string
		eventName string
		reads     int
	}{
		{"decomposed event, composed folder", composed, "tmp-" + decomposed, 1},
		{"composed event, decomposed folder", decomposed, "tmp-" + composed, 1},
		{"decomposed upper case event", composed, "TMP-CAFE\u0301", 1},
		{"accent dropped", composed, "tmp-Cafe", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "/sketches/"+tt.sketch)
			w, folder, got := installedWatcher(t, f)
			f.files.Put(f.launchPath(t), sampleLaunch)

			f.files.Emit(filepath.Join(filepath.Dir(folder.Path), tt.eventName, "launch.json"))

			assert.Equal(t, tt.reads, w.Reads())
			assert.Len(t, *got, tt.reads)
		})
	}
}

func TestWatcherUninstall(t *testing.T) {
	f := newFixture(t, "/sketches/Blink")
	w, folder, got := installedWatcher(t, f)
	f.files.Put(f.launchPath(t), sampleLaunch)

	w.Uninstall()
	w.Uninstall()
	assert.False(t, w.Installed())
	assert.Empty(t, f.files.Watched())

	f.files.Emit(filepath.Join(folder.Path, "launch.json"))
	assert.Zero(t, w.Reads())
	assert.Empty(t, *got)

	require.NoError(t, w.Install(context.Background(), folder))
	f.files.Emit(filepath.Join(folder.Path, "launch.json"))
	assert.Equal(t, 1, w.Reads())
	assert.Len(t, *got, 1)
}

func TestWatcherStopsAtFirstMatch(t *testing.T) {
	f := newFixture(t, "/sketches/Blink")
	w, folder, got := installedWatcher(t, f)
	f.files.Put(f.launchPath(t), sampleLaunch)

	path := filepath.Join(folder.Path, "launch.json")
	f.files.Emit(filepath.Join(folder.Path, "a.txt"), path, path)

	assert.Equal(t, 1, w.Reads())
	assert.Len(t, *got, 1)
}

func TestWatcherSkipsMissingAndBrokenFiles(t *testing.T) {
	f := newFixture(t, "/sketches/Blink")
	w, folder, got := installedWatcher(t, f)
	path := filepath.Join(folder.Path, "launch.json")

	f.files.Emit(path)
	f.files.Put(path, `{"configurations": [}`)
	f.files.Emit(path)

	assert.Equal(t, 2, w.Reads())
	assert.Empty(t, *got)
}

func TestWatcherRetarget(t *testing.T) {
	f := newFixture(t, "/sketches/Blink")
	w, first, got := installedWatcher(t, f)
	assert.Equal(t, []string{first.Path}, f.files.Watched())

	f.projects.Set("/sketches/Fade")
	second, err := f.locator.Locate(context.Background())
	require.NoError(t, err)
	require.NoError(t, w.Install(context.Background(), second))
	assert.Equal(t, []string{second.Path}, f.files.Watched())

	f.files.Put(filepath.Join(first.Path, "launch.json"), sampleLaunch)
	f.files.Emit(filepath.Join(first.Path, "launch.json"))
	assert.Empty(t, *got)

	f.files.Put(filepath.Join(second.Path, "launch.json"), sampleLaunch)
	f.files.Emit(filepath.Join(second.Path, "launch.json"))
	assert.Len(t, *got, 1)
}

func TestWatcherClose(t *testing.T) {
	f := newFixture(t, "/sketches/Blink")
	w, folder, got := installedWatcher(t, f)
	w.Close()

	f.files.Put(f.launchPath(t), sampleLaunch)
	f.files.Emit(filepath.Join(folder.Path, "launch.json"))
	assert.False(t, w.Installed())
	assert.Empty(t, f.files.Watched())
	assert.Empty(t, *got)
}

package launchconfig

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/grovetools/launchsync/pkg/launch"
	"github.com/grovetools/launchsync/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const sampleLaunch = `{
  // written by the IDE
  "version": "0.2.0",
  "configurations": [
    {"name": "Blink", "type": "cortex-debug", "request": "launch", "cwd": "${workspaceRoot}"},
    {"name": "Attach", "type": "cortex-debug", "request": "attach"},
  ],
  "compounds": []
}`

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type fixture struct {
	files    *testutil.FakeFileService
	projects *testutil.FakeProjects
	temps    testutil.TempFolders
	locator  *Locator
	reader   *Reader
	registry *Registry
}

func newFixture(t *testing.T, sketch string) *fixture {
	t.Helper()
	f := &fixture{
		files:    testutil.NewFakeFileService(),
		projects: testutil.NewFakeProjects(sketch),
		temps:    testutil.TempFolders{Root: t.TempDir()},
	}
	f.locator = NewLocator(f.projects, f.temps, f.files, quietLogger())
	f.reader = NewReader(f.files, "", nil, quietLogger())
	f.registry = NewRegistry(f.locator, f.reader, f.projects, quietLogger())
	return f
}

// launchPath is the launch file location of the current project.
func (f *fixture) launchPath(t *testing.T) string {
	t.Helper()
	p, ok := f.projects.Current()
	require.True(t, ok)
	return filepath.Join(f.temps.TempFolder(p), "launch.json")
}

func names(configs []launch.Configuration) []string {
	out := make([]string, 0, len(configs))
	for _, c := range configs {
		out = append(out, c.Name)
	}
	return out
}

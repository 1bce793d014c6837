package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/grovetools/launchsync/cli"
	"github.com/grovetools/launchsync/errors"
	"github.com/grovetools/launchsync/pkg/launch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every launchsync directory into a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("LAUNCHSYNC_HOME", home)
	t.Setenv("LAUNCHSYNC_TEMP_ROOT", filepath.Join(home, "tmp"))
	t.Setenv("LAUNCHSYNC_LOG_LEVEL", "error")
	t.Chdir(home)
	return home
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := cli.NewStandardCommand("launchsync", "test")
	root.AddCommand(NewShowCmd(), NewProjectCmd(), NewPathsCmd(), NewSchemaCmd(), NewValidateCmd(), NewStatusCmd())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestShowWithoutProject(t *testing.T) {
	isolate(t)
	out, err := run(t, "show", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestProjectSetThenShow(t *testing.T) {
	home := isolate(t)
	sketch := filepath.Join(home, "Blink")
	require.NoError(t, os.Mkdir(sketch, 0755))

	_, err := run(t, "project", "set", sketch)
	require.NoError(t, err)

	out, err := run(t, "paths")
	require.NoError(t, err)
	var p PathsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, sketch, p.Project)
	assert.DirExists(t, p.TempFolder)
	assert.Equal(t, filepath.Join(p.TempFolder, "launch.json"), p.LaunchFile)

	data, err := launch.Encode([]launch.Configuration{{Name: "Blink", Request: "launch"}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p.LaunchFile, data, 0644))

	out, err = run(t, "show", "--json", filepath.Join(home, "a"), filepath.Join(home, "b"))
	require.NoError(t, err)
	var views []struct {
		Root           string `json:"root"`
		URI            string `json:"uri"`
		Configurations []struct {
			Name string `json:"name"`
		} `json:"configurations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 2)
	for _, v := range views {
		assert.Equal(t, p.LaunchFile, v.URI)
		require.Len(t, v.Configurations, 1)
		assert.Equal(t, "Blink", v.Configurations[0].Name)
	}

	_, err = run(t, "validate")
	assert.NoError(t, err)
}

func TestProjectSetRejectsFile(t *testing.T) {
	home := isolate(t)
	file := filepath.Join(home, "sketch.ino")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	_, err := run(t, "project", "set", file)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestProjectShowWithoutProject(t *testing.T) {
	isolate(t)
	_, err := run(t, "project", "show")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNoActiveProject))
}

func TestShowReportsBrokenLaunchFile(t *testing.T) {
	home := isolate(t)
	sketch := filepath.Join(home, "Blink")
	require.NoError(t, os.Mkdir(sketch, 0755))
	_, err := run(t, "project", "set", sketch)
	require.NoError(t, err)

	out, err := run(t, "paths")
	require.NoError(t, err)
	var p PathsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	require.NoError(t, os.WriteFile(p.LaunchFile, []byte("{"), 0644))

	_, err = run(t, "show", "--json")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeParseFailure, errors.GetCode(err))
}

func TestSchemaAndValidate(t *testing.T) {
	home := isolate(t)
	out, err := run(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"configurations"`)

	bad := filepath.Join(home, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"configurations": [{"name": ""}]}`), 0644))
	_, err = run(t, "validate", bad)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSchemaValidation, errors.GetCode(err))

	_, err = run(t, "validate", filepath.Join(home, "missing.json"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFileNotFound, errors.GetCode(err))
	var syncErr *errors.SyncError
	require.True(t, errors.As(err, &syncErr))
	assert.Equal(t, filepath.Join(home, "missing.json"), syncErr.Details["uri"])

	// A directory is readable by stat but not as a file
	_, err = run(t, "validate", home)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeIOFailure, errors.GetCode(err))
}

func TestStatusStopped(t *testing.T) {
	isolate(t)
	out, err := run(t, "status", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"running": false`)
}

package launchconfig

import (
	"context"
	"fmt"
	"testing"

	"github.com/grovetools/launchsync/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocatorNoActiveProject(t *testing.T) {
	f := newFixture(t, "")

	_, err := f.locator.Locate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoActiveProject)
	assert.True(t, errors.Is(err, errors.ErrCodeNoActiveProject))
}

func TestLocatorCreatesFolder(t *testing.T) {
	f := newFixture(t, "/sketches/Blink")
	ctx := context.Background()

	folder, err := f.locator.Locate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Blink", folder.Project.Name)
	assert.Equal(t, "tmp-Blink", folder.Name())
	assert.True(t, f.files.FolderExists(folder.Path))

	again, err := f.locator.Locate(ctx)
	require.NoError(t, err)
	assert.Equal(t, folder, again)
}

func TestLocatorCreateFailure(t *testing.T) {
	f := newFixture(t, "/sketches/Blink")
	p, _ := f.projects.Current()
	f.files.FailCreate(f.temps.TempFolder(p), fmt.Errorf("no space left on device"))

	_, err := f.locator.Locate(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFolderCreateFailed, errors.GetCode(err))
}

package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
)

func execute(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(append([]string{"--data", dataDir}, args...))
	err := root.Execute()
	return out.String() + errOut.String(), err
}

func TestCreateListDelete(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "create", "Friday Gig", "--description", "club set")
	require.NoError(t, err)
	assert.Contains(t, out, "Created profile Friday Gig")

	_, err = execute(t, dir, "create", "friday gig")
	assert.ErrorIs(t, err, types.ErrValidation)

	out, err = execute(t, dir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Friday Gig")
	assert.Contains(t, out, "Default")
	assert.Contains(t, out, "club set")

	_, err = execute(t, dir, "delete", "Friday Gig")
	require.NoError(t, err)

	_, err = execute(t, dir, "delete", "Friday Gig")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = execute(t, dir, "delete", "Default")
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestDuplicateExportImport(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, dir, "create", "Gig")
	require.NoError(t, err)
	_, err = execute(t, dir, "duplicate", "Gig", "Gig Copy")
	require.NoError(t, err)

	archive := filepath.Join(t.TempDir(), "gig.tar.zst")
	out, err := execute(t, dir, "export", "Gig", "-o", archive)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported Gig")
	assert.FileExists(t, archive)

	out, err = execute(t, dir, "import", archive, "--name", "Gig Restored")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported profile Gig Restored")

	out, err = execute(t, dir, "list")
	require.NoError(t, err)
	for _, name := range []string{"Gig", "Gig Copy", "Gig Restored"} {
		assert.Contains(t, out, name)
	}
}

func TestPrefs(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, dir, "create", "Gig")
	require.NoError(t, err)

	out, err := execute(t, dir, "prefs", "Gig", "--set", "screen_mode=dark", "--set", "font_size=14")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated 2 preference(s)")

	out, err = execute(t, dir, "prefs", "Gig")
	require.NoError(t, err)
	assert.Contains(t, out, `"dark"`)
	assert.Contains(t, out, "14")

	_, err = execute(t, dir, "prefs", "Gig", "--set", "font_size=huge")
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = execute(t, dir, "prefs", "Gig", "--set", "novalue")
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = execute(t, dir, "prefs", "Nobody")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, 2.5, parseValue(" 2.5 "))
	assert.Equal(t, "dark", parseValue("dark"))
}

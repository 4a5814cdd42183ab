package document

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/texdoc/internal/errors"
)

func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func fixedDesktop(dir string) DesktopResolver {
	return func() (string, error) { return dir, nil }
}

func TestRelocateToDesktop(t *testing.T) {
	src := writeArtifact(t, t.TempDir(), "texdoc_1.pdf", "pdf")
	desktop := t.TempDir()
	r := Relocator{Desktop: fixedDesktop(desktop)}

	out, branch, err := r.Relocate(src, "", false)
	require.NoError(t, err)
	assert.Equal(t, BranchDesktop, branch)
	assert.Equal(t, filepath.Join(desktop, "texdoc_1.pdf"), out)
	assert.FileExists(t, out)
	assert.NoFileExists(t, src)
}

func TestRelocateDesktopConflict(t *testing.T) {
	src := writeArtifact(t, t.TempDir(), "texdoc_1.pdf", "new")
	desktop := t.TempDir()
	existing := writeArtifact(t, desktop, "texdoc_1.pdf", "old")
	r := Relocator{Desktop: fixedDesktop(desktop)}

	_, _, err := r.Relocate(src, "", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, derrors.ErrDestinationExists)

	got, _ := os.ReadFile(existing)
	assert.Equal(t, "old", string(got))
}

func TestRelocateDesktopUnresolvable(t *testing.T) {
	src := writeArtifact(t, t.TempDir(), "texdoc_1.pdf", "pdf")
	r := Relocator{Desktop: func() (string, error) { return "", errors.New("no home") }}

	_, branch, err := r.Relocate(src, "", false)
	require.Error(t, err)
	assert.Equal(t, BranchDesktop, branch)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryEnvironment))
}

func TestRelocateIntoDirectory(t *testing.T) {
	src := writeArtifact(t, t.TempDir(), "texdoc_2.pdf", "pdf")
	dest := t.TempDir()

	out, branch, err := Relocator{}.Relocate(src, dest, false)
	require.NoError(t, err)
	assert.Equal(t, BranchDirectory, branch)
	assert.Equal(t, filepath.Join(dest, "texdoc_2.pdf"), out)
	assert.FileExists(t, out)
}

func TestRelocateOverExistingFile(t *testing.T) {
	dir := t.TempDir()
	dest := writeArtifact(t, dir, "report.pdf", "old")

	t.Run("refused without overwrite", func(t *testing.T) {
		src := writeArtifact(t, t.TempDir(), "texdoc_3.pdf", "new")
		_, branch, err := Relocator{}.Relocate(src, dest, false)
		require.Error(t, err)
		assert.Equal(t, BranchFile, branch)
		assert.ErrorIs(t, err, derrors.ErrDestinationExists)
		assert.Contains(t, err.Error(), "instructed not to overwrite")
		assert.FileExists(t, src)
		got, _ := os.ReadFile(dest)
		assert.Equal(t, "old", string(got))
	})

	t.Run("replaced with overwrite", func(t *testing.T) {
		src := writeArtifact(t, t.TempDir(), "texdoc_3.pdf", "new")
		out, branch, err := Relocator{}.Relocate(src, dest, true)
		require.NoError(t, err)
		assert.Equal(t, BranchFile, branch)
		assert.Equal(t, dest, out)
		got, _ := os.ReadFile(dest)
		assert.Equal(t, "new", string(got))
	})
}

func TestRelocateToNewPath(t *testing.T) {
	src := writeArtifact(t, t.TempDir(), "texdoc_4.pdf", "pdf")
	dest := filepath.Join(t.TempDir(), "nested", "out.pdf")

	out, branch, err := Relocator{}.Relocate(src, dest, false)
	require.NoError(t, err)
	assert.Equal(t, BranchPath, branch)
	assert.Equal(t, dest, out)
	assert.FileExists(t, dest)
}

func TestRelocateMissingArtifact(t *testing.T) {
	src := filepath.Join(t.TempDir(), "texdoc_5.pdf")
	dest := filepath.Join(t.TempDir(), "out.pdf")

	_, _, err := Relocator{}.Relocate(src, dest, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryCompile))
	assert.NoFileExists(t, dest)
}

func TestDefaultDesktopHonoursXDG(t *testing.T) {
	t.Setenv("XDG_DESKTOP_DIR", "/tmp/xdg-desktop")
	dir, err := DefaultDesktop()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg-desktop", dir)
}

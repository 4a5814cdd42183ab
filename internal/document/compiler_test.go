package document

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestNewBinaryCompilerDefaults(t *testing.T) {
	c := NewBinaryCompiler("", nil)
	assert.Equal(t, DefaultCompilerBinary, c.Binary)
	assert.Equal(t, DefaultCompilerArgs(), c.Args)

	c = NewBinaryCompiler("xelatex", []string{})
	assert.Equal(t, "xelatex", c.Binary)
	assert.Empty(t, c.Args)
}

func TestBinaryCompilerRunsInWorkspace(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	// The source name is passed as the last argument ($1).
	c := NewBinaryCompiler("sh", []string{"-c", `touch "${1%.tex}.pdf"; echo compiled`, "sh"})

	res := c.Compile(t.Context(), dir, "doc.tex")
	require.True(t, res.OK(), res.Output)
	assert.Contains(t, res.Output, "compiled")
	assert.FileExists(t, filepath.Join(dir, "doc.pdf"))
}

func TestBinaryCompilerReportsExitCode(t *testing.T) {
	requireShell(t)
	c := NewBinaryCompiler("sh", []string{"-c", "echo broken >&2; exit 3", "sh"})

	res := c.Compile(t.Context(), t.TempDir(), "doc.tex")
	assert.False(t, res.OK())
	assert.Equal(t, 3, res.ExitCode)
	require.ErrorIs(t, res.Err, ErrCompilerFailed)
	assert.Contains(t, res.Output, "broken")
}

func TestBinaryCompilerMissingBinary(t *testing.T) {
	c := NewBinaryCompiler("texdoc-no-such-engine", nil)
	res := c.Compile(t.Context(), t.TempDir(), "doc.tex")
	assert.Equal(t, -1, res.ExitCode)
	require.ErrorIs(t, res.Err, ErrCompilerNotFound)
}

func TestBinaryCompilerDoesNotLeakIntoCwd(t *testing.T) {
	requireShell(t)
	cwd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	c := NewBinaryCompiler("sh", []string{"-c", "pwd", "sh"})

	res := c.Compile(t.Context(), dir, "doc.tex")
	require.True(t, res.OK())
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Contains(t, res.Output, resolved)

	after, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, cwd, after)
}

package revision

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	r, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "job.yaml"), []byte("title: x\n"), 0o600))
	wt, err := r.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("job.yaml")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()}})
	require.NoError(t, err)
	return dir, hash.String()
}

func TestLookupFindsRepositoryFromSubdirectory(t *testing.T) {
	dir, hash := initRepo(t)
	sub := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(sub, 0o750))

	info, err := Lookup(sub)
	require.NoError(t, err)
	assert.Equal(t, hash, info.Hash)
	assert.Equal(t, hash[:8], info.Short)
	assert.NotEmpty(t, info.Branch)
	assert.False(t, info.Dirty)
	assert.Equal(t, `\newcommand{\docrevision}{`+hash[:8]+`}`, Stamp(info))
}

func TestLookupReportsDirtyWorktree(t *testing.T) {
	dir, _ := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "job.yaml"), []byte("title: y\n"), 0o600))

	info, err := Lookup(dir)
	require.NoError(t, err)
	assert.True(t, info.Dirty)
	assert.Contains(t, Stamp(info), "-dirty}")
}

func TestLookupOutsideRepository(t *testing.T) {
	_, err := Lookup(t.TempDir())
	require.ErrorIs(t, err, ErrNotRepository)
}

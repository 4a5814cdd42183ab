// Package revision reads the git revision of the repository containing a job,
// so builds can stamp documents with the commit they were produced from.
package revision

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned when dir is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

const shortHashLen = 8

// Info describes the checked-out commit.
type Info struct {
	Hash   string
	Short  string
	Branch string
	// Dirty reports uncommitted changes in the work tree.
	Dirty bool
}

// Lookup opens the repository containing dir, searching parent directories.
func Lookup(dir string) (Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Info{}, fmt.Errorf("%w: %s", ErrNotRepository, dir)
		}
		return Info{}, fmt.Errorf("failed to open repository: %w", err)
	}

	ref, err := repo.Head()
	if err != nil {
		return Info{}, fmt.Errorf("failed to get HEAD: %w", err)
	}

	info := Info{Hash: ref.Hash().String()}
	info.Short = info.Hash
	if len(info.Short) > shortHashLen {
		info.Short = info.Short[:shortHashLen]
	}
	if ref.Name().IsBranch() {
		info.Branch = ref.Name().Short()
	}

	wt, err := repo.Worktree()
	if err != nil {
		return Info{}, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return Info{}, fmt.Errorf("failed to get worktree status: %w", err)
	}
	info.Dirty = !status.IsClean()
	return info, nil
}

// Stamp returns the preamble line defining \docrevision for info.
func Stamp(info Info) string {
	rev := info.Short
	if info.Dirty {
		rev += "-dirty"
	}
	return `\newcommand{\docrevision}{` + rev + `}`
}

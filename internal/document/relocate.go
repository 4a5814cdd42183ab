package document

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/natefinch/atomic"

	derrors "git.home.luguber.info/inful/texdoc/internal/errors"
	"git.home.luguber.info/inful/texdoc/internal/logfields"
)

// Branch names the destination rule that placed an artifact.
type Branch string

const (
	BranchDesktop   Branch = "desktop"
	BranchDirectory Branch = "directory"
	BranchFile      Branch = "file"
	BranchPath      Branch = "path"
)

// DesktopResolver returns the directory used when no destination is configured.
type DesktopResolver func() (string, error)

// DefaultDesktop resolves $XDG_DESKTOP_DIR, falling back to ~/Desktop.
func DefaultDesktop() (string, error) {
	if dir := os.Getenv("XDG_DESKTOP_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Desktop"), nil
}

// Relocator applies the destination policy to a compiled artifact.
type Relocator struct {
	Desktop DesktopResolver
}

// Resolve computes where an artifact called name goes, without touching it.
//
// Rules, in order: no destination means desktop/name; an existing directory
// means dir/name; an existing file is replaced only with overwrite; anything
// else is used as the exact target path. For the desktop and directory rules
// an existing target without overwrite is a conflict.
func (r Relocator) Resolve(name, destination string, overwrite bool) (string, Branch, error) {
	if destination == "" {
		resolve := r.Desktop
		if resolve == nil {
			resolve = DefaultDesktop
		}
		desktop, err := resolve()
		if err != nil {
			return "", BranchDesktop, derrors.EnvironmentError("desktop directory", err)
		}
		target := filepath.Join(desktop, name)
		if exists(target) && !overwrite {
			return "", BranchDesktop, derrors.DestinationExists(target)
		}
		return target, BranchDesktop, nil
	}

	info, err := os.Stat(destination)
	switch {
	case err == nil && info.IsDir():
		target := filepath.Join(destination, name)
		if exists(target) && !overwrite {
			return "", BranchDirectory, derrors.DestinationExists(target)
		}
		return target, BranchDirectory, nil
	case err == nil:
		if !overwrite {
			return "", BranchFile, derrors.DestinationExists(destination)
		}
		return destination, BranchFile, nil
	default:
		return destination, BranchPath, nil
	}
}

// Relocate moves the artifact at src according to the destination policy and
// returns the final path.
func (r Relocator) Relocate(src, destination string, overwrite bool) (string, Branch, error) {
	target, branch, err := r.Resolve(filepath.Base(src), destination, overwrite)
	if err != nil {
		return "", branch, err
	}

	if _, err := os.Stat(src); err != nil {
		return "", branch, derrors.ArtifactMissing(src, err)
	}
	if err := moveFile(src, target); err != nil {
		return "", branch, derrors.RelocationFailed(target, err)
	}

	slog.Info("Relocated document", logfields.Destination(target), slog.String("branch", string(branch)))
	return target, branch, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// moveFile renames src to dst, creating dst's parent directories. Across
// filesystems it falls back to an atomic copy followed by removing src.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}

	slog.Debug("Cross-device move, copying artifact", logfields.Path(src), logfields.Destination(dst))
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := atomic.WriteFile(dst, in); err != nil {
		return fmt.Errorf("copy artifact: %w", err)
	}
	if err := os.Remove(src); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove moved artifact: %w", err)
	}
	return nil
}

package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/texdoc/internal/logfields"
)

// DefaultPrefix marks workspace directories and source files as belonging to texdoc.
const DefaultPrefix = "texdoc_"

// Manager handles a single ephemeral workspace directory.
type Manager struct {
	baseDir string
	prefix  string
	tempDir string
}

// NewManager creates a new workspace manager. An empty baseDir selects os.TempDir().
func NewManager(baseDir string) *Manager {
	return &Manager{
		baseDir: baseDir,
		prefix:  DefaultPrefix,
	}
}

// WithPrefix overrides the directory and file name prefix.
func (m *Manager) WithPrefix(prefix string) *Manager {
	if prefix != "" {
		m.prefix = prefix
	}
	return m
}

// Create creates the workspace directory. The directory is private (0700) and
// uniquely named, so concurrent managers never share one.
func (m *Manager) Create() error {
	if m.tempDir != "" {
		return fmt.Errorf("workspace already created: %s", m.tempDir)
	}

	baseDir := m.baseDir
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace base directory: %w", err)
	}

	tempDir, err := os.MkdirTemp(baseDir, m.prefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}

	m.tempDir = tempDir
	slog.Debug("Created workspace", logfields.Path(tempDir))
	return nil
}

// GetPath returns the path to the workspace directory
func (m *Manager) GetPath() string {
	return m.tempDir
}

// CreateFile creates a uniquely named file inside the workspace, named
// <prefix><random><suffix>. The caller owns the returned file handle.
func (m *Manager) CreateFile(suffix string) (*os.File, error) {
	if m.tempDir == "" {
		return nil, fmt.Errorf("workspace not created")
	}

	f, err := os.CreateTemp(m.tempDir, m.prefix+"*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace file: %w", err)
	}
	slog.Debug("Created workspace file", logfields.File(filepath.Base(f.Name())))
	return f, nil
}

// Cleanup removes the workspace directory and everything in it. Calling it
// before Create or more than once is a no-op.
func (m *Manager) Cleanup() error {
	if m.tempDir == "" {
		return nil
	}

	if err := os.RemoveAll(m.tempDir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}

	slog.Debug("Cleaned up workspace", logfields.Path(m.tempDir))
	m.tempDir = ""
	return nil
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/texdoc/internal/errors"
)

const initHeader = `# texdoc job file.
# Build with: texdoc build <this file>
`

// ExampleJob returns the job written by Init.
func ExampleJob() Job {
	passes := 2
	return Job{
		Version: CurrentVersion,
		Title:   ArgSpec{Name: "Hello"},
		Author:  "${USER}",
		Class:   "amsart",
		ExtraPackages: []ArgSpec{
			{Name: "amssymb"},
			{Name: "geometry", Options: []string{"margin=2cm"}},
		},
		FontSize: 11,
		Columns:  1,
		Passes:   &passes,
		Body:     []string{"Hello World"},
	}
}

// Init writes an example job file to path. An existing file is only replaced
// when force is set. The write is atomic.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return derrors.New(derrors.CategoryConfig, derrors.SeverityFatal,
			fmt.Sprintf("job file already exists: %s (use --force to overwrite)", path)).
			WithContext("path", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return derrors.Wrap(err, derrors.CategoryFileSystem, derrors.SeverityFatal, "failed to stat job file")
	}

	job := ExampleJob()
	var buf bytes.Buffer
	buf.WriteString(initHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&job); err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return derrors.Wrap(err, derrors.CategoryFileSystem, derrors.SeverityFatal, "failed to write job file").
			WithContext("path", path)
	}
	return nil
}

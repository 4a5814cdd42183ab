package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/texdoc/internal/errors"
	"git.home.luguber.info/inful/texdoc/internal/logfields"
)

// LoadEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. With no paths it tries .env and
// .env.local in the working directory and ignores missing files.
func LoadEnv(paths ...string) error {
	if len(paths) > 0 {
		if err := godotenv.Load(paths...); err != nil {
			return derrors.Wrap(err, derrors.CategoryConfig, derrors.SeverityFatal, "failed to load env file")
		}
		return nil
	}
	for _, p := range []string{".env", ".env.local"} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return derrors.Wrap(err, derrors.CategoryConfig, derrors.SeverityFatal, "failed to load env file").
				WithContext("path", p)
		}
		slog.Debug("Loaded environment variables", logfields.Path(p))
	}
	return nil
}

// Load reads, expands and validates the job at path. ${VAR} references are
// expanded from the environment before decoding, and relative source and
// destination paths are resolved against the job's directory.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, derrors.ConfigNotFound(path)
		}
		return nil, derrors.Wrap(err, derrors.CategoryFileSystem, derrors.SeverityFatal, "failed to read job file").
			WithContext("path", path)
	}

	job, err := Parse(data)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CategoryConfig, derrors.SeverityFatal, "failed to parse job file").
			WithContext("path", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CategoryFileSystem, derrors.SeverityFatal, "failed to resolve job path")
	}
	job.Path = abs
	job.Dir = filepath.Dir(abs)
	job.Source = job.resolve(job.Source)
	job.Destination = job.resolve(job.Destination)

	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}

// envRef matches ${NAME}. Bare $NAME is left alone so TeX math survives.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(m[2 : len(m)-1])
	})
}

// Parse decodes job YAML after ${VAR} expansion. Unknown keys are errors.
func Parse(data []byte) (*Job, error) {
	expanded := expandEnv(string(data))

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)

	var job Job
	if err := dec.Decode(&job); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

func (j *Job) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || j.Dir == "" {
		return p
	}
	return filepath.Join(j.Dir, p)
}

package build

import (
	"os"
	"slices"
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/texdoc/internal/config"
	"git.home.luguber.info/inful/texdoc/internal/document"
	derrors "git.home.luguber.info/inful/texdoc/internal/errors"
	"git.home.luguber.info/inful/texdoc/internal/frontmatter"
	"git.home.luguber.info/inful/texdoc/internal/latex"
	"git.home.luguber.info/inful/texdoc/internal/markdown"
)

// sources holds everything read from disk for one build.
type sources struct {
	markdown *frontmatter.Source
	// raw is the Markdown file content, used for fingerprinting.
	raw []byte
}

func loadSources(job *config.Job) (*sources, error) {
	s := &sources{}
	if job.Source == "" {
		return s, nil
	}

	data, err := os.ReadFile(job.Source)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CategoryFileSystem, derrors.SeverityFatal, "failed to read markdown source").
			WithContext("path", job.Source)
	}
	md, err := frontmatter.Parse(data)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CategoryValidation, derrors.SeverityFatal, "invalid markdown frontmatter").
			WithContext("path", job.Source)
	}
	s.raw = data
	s.markdown = &md
	return s, nil
}

// applyHeader fills title and author from Markdown frontmatter when the job
// leaves them empty, and appends frontmatter packages not already listed.
func (s *sources) applyHeader(cfg *document.Config) {
	if s.markdown == nil {
		return
	}
	h := s.markdown.Header
	if cfg.Title.IsZero() && h.Title != "" {
		if h.ShortTitle != "" {
			cfg.Title = latex.ArgWith(h.Title, h.ShortTitle)
		} else {
			cfg.Title = latex.Arg(h.Title)
		}
	}
	if cfg.Author == "" {
		cfg.Author = h.Author
	}
	for _, pkg := range h.Packages {
		if !slices.ContainsFunc(cfg.Packages, func(a latex.Argument) bool { return a.Value == pkg }) {
			cfg.Packages = append(cfg.Packages, latex.Arg(pkg))
		}
	}
}

// body returns the function writing the inline lines followed by the
// rendered Markdown.
func (s *sources) body(job *config.Job) document.BodyFunc {
	return func(e *latex.Emitter) error {
		e.WriteLines(job.Body...)
		if s.markdown != nil {
			if err := markdown.Render(s.markdown.Body, e, markdown.Options{HeadingOffset: job.HeadingOffset}); err != nil {
				return derrors.Wrap(err, derrors.CategoryValidation, derrors.SeverityFatal, "failed to render markdown").
					WithContext("path", job.Source)
			}
		}
		return e.Err()
	}
}

// fingerprint hashes the job definition together with all body content.
func (s *sources) fingerprint(job *config.Job) (string, error) {
	jobYAML, err := yaml.Marshal(job)
	if err != nil {
		return "", derrors.InternalError("failed to serialize job for fingerprint", err)
	}
	var body strings.Builder
	body.WriteString(strings.Join(job.Body, "\n"))
	body.WriteString("\n")
	body.Write(s.raw)
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(jobYAML), "\n"), body.String()), nil
}

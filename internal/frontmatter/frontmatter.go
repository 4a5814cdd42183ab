// Package frontmatter separates YAML frontmatter from Markdown document bodies
// and decodes the header fields the document builder understands.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the source started with a frontmatter
// delimiter but never closed it.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Header holds the frontmatter keys that feed the document preamble.
type Header struct {
	Title      string   `yaml:"title"`
	ShortTitle string   `yaml:"short_title"`
	Author     string   `yaml:"author"`
	Packages   []string `yaml:"packages"`
}

// Source is a Markdown file split into header and body.
type Source struct {
	Header Header
	// Fields holds every frontmatter key, including ones Header ignores.
	Fields map[string]any
	// Raw is the frontmatter text without delimiters.
	Raw  []byte
	Body []byte
	// Had reports whether the input carried a frontmatter block at all.
	Had bool
}

// Split separates `---` delimited YAML frontmatter from the body. Both LF and
// CRLF line endings are accepted. Without a leading delimiter had is false and
// body is the whole input.
func Split(content []byte) (frontmatter, body []byte, had bool, err error) {
	nl := newline(content)
	delim := []byte("---" + nl)
	if !bytes.HasPrefix(content, delim) {
		return nil, content, false, nil
	}

	start := len(delim)
	if bytes.HasPrefix(content[start:], delim) {
		return []byte{}, content[start+len(delim):], true, nil
	}

	closing := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closing)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closing):], true, nil
}

// Parse splits content and decodes its frontmatter.
func Parse(content []byte) (Source, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		return Source{}, err
	}
	src := Source{Raw: raw, Body: body, Had: had, Fields: map[string]any{}}
	if len(raw) == 0 {
		return src, nil
	}

	if err := yaml.Unmarshal(raw, &src.Fields); err != nil {
		return Source{}, fmt.Errorf("parse frontmatter: %w", err)
	}
	if src.Fields == nil {
		src.Fields = map[string]any{}
	}
	if err := yaml.Unmarshal(raw, &src.Header); err != nil {
		return Source{}, fmt.Errorf("decode frontmatter header: %w", err)
	}
	return src, nil
}

func newline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// Package config loads and validates document job files.
//
// A job file is YAML describing one document: preamble settings, body
// sources and where the compiled PDF goes.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/texdoc/internal/latex"
)

// CurrentVersion is written by Init and accepted by Load.
const CurrentVersion = "1"

// Job is the decoded form of a job file.
type Job struct {
	Version string `yaml:"version"`

	Title  ArgSpec `yaml:"title,omitempty"`
	Author string  `yaml:"author,omitempty"`

	Class    string    `yaml:"class,omitempty"`
	Options  []string  `yaml:"options,omitempty"`
	Packages []ArgSpec `yaml:"packages,omitempty"`
	// ExtraPackages are appended to Packages (or to the defaults when
	// Packages is not set).
	ExtraPackages []ArgSpec `yaml:"extra_packages,omitempty"`
	Preamble      []string  `yaml:"preamble,omitempty"`
	FontSize      int       `yaml:"font_size,omitempty"`
	Columns       int       `yaml:"columns,omitempty"`
	FullPage      bool      `yaml:"full_page,omitempty"`

	// Passes is a pointer so an explicit 0 can be told apart from unset.
	Passes      *int   `yaml:"passes,omitempty"`
	Destination string `yaml:"destination,omitempty"`
	Overwrite   bool   `yaml:"overwrite,omitempty"`

	// Body lines are written verbatim before the Markdown source.
	Body          []string `yaml:"body,omitempty"`
	Source        string   `yaml:"source,omitempty"`
	HeadingOffset int      `yaml:"heading_offset,omitempty"`
	StampRevision bool     `yaml:"stamp_revision,omitempty"`

	Compiler CompilerConfig `yaml:"compiler,omitempty"`

	// Path is the file the job was loaded from; Dir is its directory.
	Path string `yaml:"-"`
	Dir  string `yaml:"-"`
}

// CompilerConfig selects the TeX engine.
type CompilerConfig struct {
	Binary string   `yaml:"binary,omitempty"`
	Args   []string `yaml:"args,omitempty"`
	// Strict turns a failing compiler pass into a build error.
	Strict bool `yaml:"strict,omitempty"`
}

// ArgSpec is a name with optional options. In YAML it is either a plain
// string or a mapping with name (or text) and options keys.
type ArgSpec struct {
	Name    string
	Options []string
}

type argSpecMapping struct {
	Name    string   `yaml:"name,omitempty"`
	Text    string   `yaml:"text,omitempty"`
	Options []string `yaml:"options,omitempty"`
}

// UnmarshalYAML accepts a scalar or a mapping.
func (a *ArgSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		a.Name = node.Value
		a.Options = nil
		return nil
	case yaml.MappingNode:
		var m argSpecMapping
		if err := node.Decode(&m); err != nil {
			return err
		}
		if m.Name != "" && m.Text != "" {
			return fmt.Errorf("line %d: name and text are mutually exclusive", node.Line)
		}
		a.Name = m.Name
		if a.Name == "" {
			a.Name = m.Text
		}
		a.Options = m.Options
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a mapping", node.Line)
	}
}

// MarshalYAML writes a plain string when there are no options.
func (a ArgSpec) MarshalYAML() (any, error) {
	if len(a.Options) == 0 {
		return a.Name, nil
	}
	return argSpecMapping{Name: a.Name, Options: a.Options}, nil
}

// IsZero lets omitempty drop unset specs.
func (a ArgSpec) IsZero() bool {
	return a.Name == "" && len(a.Options) == 0
}

// Argument converts a to the emitter's argument type.
func (a ArgSpec) Argument() latex.Argument {
	return latex.ArgWith(a.Name, a.Options...)
}

func arguments(specs []ArgSpec) []latex.Argument {
	if specs == nil {
		return nil
	}
	out := make([]latex.Argument, len(specs))
	for i, s := range specs {
		out[i] = s.Argument()
	}
	return out
}

package document

import (
	"fmt"
	"slices"

	derrors "git.home.luguber.info/inful/texdoc/internal/errors"
	"git.home.luguber.info/inful/texdoc/internal/latex"
)

// Default settings for new documents.
const (
	DefaultClass    = "amsart"
	DefaultFontSize = 11
	DefaultColumns  = 1
	DefaultPasses   = 2

	fullPagePackage = "fullpage"
)

// DefaultOptions returns a fresh copy of the baseline document class options.
func DefaultOptions() []string {
	return []string{
		"a4paper",
		"oneside",
		"onecolumn",
		"notitlepage",
		"reqno",
		"UKenglish",
	}
}

// DefaultPackages returns a fresh copy of the baseline package list.
func DefaultPackages() []latex.Argument {
	return []latex.Argument{
		latex.ArgWith("inputenc", "utf8"),
		latex.ArgWith("fontenc", "T1"),
		latex.Arg("textcomp"),
		latex.Arg("lmodern"),
		latex.Arg("microtype"),
		latex.Arg("babel"),
		latex.Arg("varioref"),
		latex.ArgWith("hyperref", "pdftex"),
		latex.ArgWith("cleveref", "capitalize", "nameinlink", "noabbrev"),
	}
}

// Config holds the settings of one document.
//
// Start from DefaultConfig: a zero Passes means "do not compile". Nil Options
// or Packages select the defaults; an empty non-nil slice means none.
type Config struct {
	Title  latex.Argument
	Author string

	Class    string
	Options  []string
	Packages []latex.Argument
	Preamble []string
	FontSize int
	Columns  int
	FullPage bool

	Passes      int
	Destination string
	Overwrite   bool
}

// DefaultConfig returns a Config populated with the default settings. Every
// call returns independent slices.
func DefaultConfig() Config {
	return Config{
		Class:    DefaultClass,
		Options:  DefaultOptions(),
		Packages: DefaultPackages(),
		FontSize: DefaultFontSize,
		Columns:  DefaultColumns,
		Passes:   DefaultPasses,
	}
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.Title = latex.ArgWith(c.Title.Value, c.Title.Options...)
	if c.Options != nil {
		out.Options = slices.Clone(c.Options)
	}
	if c.Packages != nil {
		out.Packages = make([]latex.Argument, len(c.Packages))
		for i, p := range c.Packages {
			out.Packages[i] = latex.ArgWith(p.Value, p.Options...)
		}
	}
	if c.Preamble != nil {
		out.Preamble = slices.Clone(c.Preamble)
	}
	return out
}

// withDefaults fills fields whose zero value is never valid.
func (c Config) withDefaults() Config {
	if c.Class == "" {
		c.Class = DefaultClass
	}
	if c.FontSize == 0 {
		c.FontSize = DefaultFontSize
	}
	if c.Columns == 0 {
		c.Columns = DefaultColumns
	}
	if c.Options == nil {
		c.Options = DefaultOptions()
	}
	if c.Packages == nil {
		c.Packages = DefaultPackages()
	}
	return c
}

// Validate checks every field that is restricted to a fixed domain.
func (c Config) Validate() error {
	if c.Columns != 1 && c.Columns != 2 {
		return derrors.InvalidConfig("columns", c.Columns, fmt.Sprintf("unrecognized column specifier: %d", c.Columns))
	}
	if c.FontSize < 10 || c.FontSize > 12 {
		return derrors.InvalidConfig("font_size", c.FontSize, fmt.Sprintf("font size must be 10, 11 or 12, got %d", c.FontSize))
	}
	if c.Passes < 0 {
		return derrors.InvalidConfig("passes", c.Passes, "compile pass count cannot be negative")
	}
	return nil
}

// sizeAndColumnOptions are replaced by the configured font size and column count.
var sizeAndColumnOptions = []string{"10pt", "11pt", "12pt", "onecolumn", "twocolumn"}

// EffectiveOptions returns the document class options with any font size or
// column tokens replaced by the configured ones. c is not modified.
func EffectiveOptions(c Config) ([]string, error) {
	var columns string
	switch c.Columns {
	case 1:
		columns = "onecolumn"
	case 2:
		columns = "twocolumn"
	default:
		return nil, derrors.InvalidConfig("columns", c.Columns, fmt.Sprintf("unrecognized column specifier: %d", c.Columns))
	}

	out := make([]string, 0, len(c.Options)+2)
	for _, opt := range c.Options {
		if slices.Contains(sizeAndColumnOptions, opt) {
			continue
		}
		out = append(out, opt)
	}
	out = append(out, fmt.Sprintf("%dpt", c.FontSize), columns)
	return out, nil
}

// EffectivePackages returns the package list, with fullpage prepended when
// FullPage is set and no fullpage package is listed. c is not modified.
func EffectivePackages(c Config) []latex.Argument {
	pkgs := make([]latex.Argument, 0, len(c.Packages)+1)
	if c.FullPage && !slices.ContainsFunc(c.Packages, func(a latex.Argument) bool { return a.Value == fullPagePackage }) {
		pkgs = append(pkgs, latex.Arg(fullPagePackage))
	}
	return append(pkgs, c.Packages...)
}

package config

import (
	"slices"

	"git.home.luguber.info/inful/texdoc/internal/document"
)

// ToDocument builds the document configuration for j. Unset fields keep the
// document defaults; an explicitly empty options or packages list stays empty.
func (j *Job) ToDocument() document.Config {
	c := document.DefaultConfig()
	c.Title = j.Title.Argument()
	c.Author = j.Author
	if j.Class != "" {
		c.Class = j.Class
	}
	if j.Options != nil {
		c.Options = slices.Clone(j.Options)
	}
	if j.Packages != nil {
		c.Packages = arguments(j.Packages)
	}
	c.Packages = append(c.Packages, arguments(j.ExtraPackages)...)
	c.Preamble = slices.Clone(j.Preamble)
	if j.FontSize != 0 {
		c.FontSize = j.FontSize
	}
	if j.Columns != 0 {
		c.Columns = j.Columns
	}
	c.FullPage = j.FullPage
	if j.Passes != nil {
		c.Passes = *j.Passes
	}
	c.Destination = j.Destination
	c.Overwrite = j.Overwrite
	return c
}

package config

import (
	"fmt"

	derrors "git.home.luguber.info/inful/texdoc/internal/errors"
)

// Validate checks the job without touching the filesystem beyond the
// Markdown source.
func (j *Job) Validate() error {
	if j.Version != "" && j.Version != CurrentVersion {
		return derrors.InvalidConfig("version", j.Version,
			fmt.Sprintf("unsupported job version %q (expected %q)", j.Version, CurrentVersion))
	}
	if j.Columns != 0 && j.Columns != 1 && j.Columns != 2 {
		return derrors.InvalidConfig("columns", j.Columns, fmt.Sprintf("unrecognized column specifier: %d", j.Columns))
	}
	if j.FontSize != 0 && (j.FontSize < 10 || j.FontSize > 12) {
		return derrors.InvalidConfig("font_size", j.FontSize, fmt.Sprintf("font size must be 10, 11 or 12, got %d", j.FontSize))
	}
	if j.Passes != nil && *j.Passes < 0 {
		return derrors.InvalidConfig("passes", *j.Passes, "compile pass count cannot be negative")
	}
	if j.HeadingOffset < 0 || j.HeadingOffset > 3 {
		return derrors.InvalidConfig("heading_offset", j.HeadingOffset, "heading offset must be between 0 and 3")
	}
	for i, p := range append(append([]ArgSpec(nil), j.Packages...), j.ExtraPackages...) {
		if p.Name == "" {
			return derrors.ValidationFailed(fmt.Sprintf("packages[%d]", i), "package name is required")
		}
	}
	if j.Source != "" {
		if err := checkSource(j.Source); err != nil {
			return err
		}
	}
	return nil
}

package config

import (
	"os"

	derrors "git.home.luguber.info/inful/texdoc/internal/errors"
)

func checkSource(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return derrors.ValidationFailed("source", "markdown source not found: "+path)
	}
	if info.IsDir() {
		return derrors.ValidationFailed("source", "markdown source is a directory: "+path)
	}
	return nil
}

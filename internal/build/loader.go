package build

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/gnituy18/tmake/internal/erb"
)

// ErrUnreadable marks a template, logic or partial file that could not be
// read.
var ErrUnreadable = erb.ErrUnreadable

func readFile(fs afero.Fs, path string) (string, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	return string(b), nil
}

// partialLoader resolves partial names against a directory.
type partialLoader struct {
	fs  afero.Fs
	dir string
}

func (l partialLoader) LoadPartial(name string) (string, string, error) {
	path := filepath.Join(l.dir, filepath.FromSlash(name))
	text, err := readFile(l.fs, path)
	if err != nil {
		return "", "", err
	}
	return path, text, nil
}

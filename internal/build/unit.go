// Package build finds the templates under a template root, decides which of
// them need converting, and writes one generated Go file per template plus
// a manifest of what each file was generated from.
package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/gnituy18/tmake/internal/config"
)

type Dialect int

const (
	// InlineTag templates carry their directives inline between <% and %>.
	InlineTag Dialect = iota + 1
	// ExternalLogic templates are plain markup with data-tf labels and a
	// logic file of the same name.
	ExternalLogic
)

func (d Dialect) String() string {
	switch d {
	case InlineTag:
		return "inline-tag"
	case ExternalLogic:
		return "external-logic"
	}
	return fmt.Sprintf("Dialect(%d)", int(d))
}

// Unit is one template to convert.
type Unit struct {
	Path string
	// LogicPath is the logic file paired with an ExternalLogic template. It
	// may not exist.
	LogicPath string
	Dialect   Dialect
	Name      string
}

// Artifact is the file name of the unit's generated source.
func (u Unit) Artifact() string {
	return u.Name + ".go"
}

// UnitName derives the generated function name for the template at path:
// the name of its directory, an underscore, the file name up to its first
// dot and "View". Bytes that cannot appear in a Go identifier become '_'.
func UnitName(path string) string {
	dir := filepath.Base(filepath.Dir(path))
	base, _, _ := strings.Cut(filepath.Base(path), ".")

	name := base + "View"
	if dir != "." && dir != string(filepath.Separator) {
		name = dir + "_" + name
	}

	b := []byte(name)
	for i, c := range b {
		if !(c == '_' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			b[i] = '_'
		}
	}
	if b[0] >= '0' && b[0] <= '9' {
		return "_" + string(b)
	}
	return string(b)
}

// Discover walks the template root and returns its units in path order.
// Files matching an exclude pattern, files under the partial directory,
// logic files and files with unknown extensions are skipped. Errors reading part of the tree are returned
// alongside the units found elsewhere.
func Discover(fs afero.Fs, cfg *config.Config) ([]Unit, []error) {
	var (
		units []Unit
		errs  []error
	)
	root := cfg.TemplateRoot
	afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrUnreadable, err))
			return nil
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if excluded(cfg.Exclude, filepath.ToSlash(rel)) || within(cfg.Partials(), path) {
			return nil
		}

		u := Unit{Path: path, Name: UnitName(path)}
		switch filepath.Ext(path) {
		case cfg.InlineExt:
			u.Dialect = InlineTag
		case cfg.MarkupExt:
			u.Dialect = ExternalLogic
			u.LogicPath = strings.TrimSuffix(path, cfg.MarkupExt) + cfg.LogicExt
		default:
			return nil
		}
		units = append(units, u)
		return nil
	})
	return units, errs
}

func excluded(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// within reports whether path lies under dir.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

package build

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/gnituy18/tmake/internal/config"
	"github.com/gnituy18/tmake/internal/erb"
	"github.com/gnituy18/tmake/internal/otama"
)

// conversion is a converted unit and every file read to produce it.
type conversion struct {
	out     *erb.Output
	sources []string
}

type converter interface {
	convert(u Unit) (*conversion, error)
}

func newConverter(d Dialect, afs afero.Fs, cfg *config.Config, log hclog.Logger) converter {
	opts := erb.Options{
		Trim:       cfg.Trim,
		Partials:   partialLoader{fs: afs, dir: cfg.Partials()},
		PartialExt: cfg.PartialExt,
	}
	switch d {
	case InlineTag:
		return inlineTag{fs: afs, opts: opts}
	case ExternalLogic:
		return externalLogic{
			fs:    afs,
			opts:  opts,
			logic: otama.Options{ReplaceMarker: cfg.ReplaceMarker, Trim: cfg.Trim},
			log:   log,
		}
	}
	return nil
}

type inlineTag struct {
	fs   afero.Fs
	opts erb.Options
}

func (c inlineTag) convert(u Unit) (*conversion, error) {
	text, err := readFile(c.fs, u.Path)
	if err != nil {
		return nil, err
	}
	out, err := erb.Convert(text, c.opts)
	if err != nil {
		return nil, err
	}
	return &conversion{
		out:     out,
		sources: append([]string{u.Path}, out.Partials...),
	}, nil
}

type externalLogic struct {
	fs    afero.Fs
	opts  erb.Options
	logic otama.Options
	log   hclog.Logger
}

func (c externalLogic) convert(u Unit) (*conversion, error) {
	markupText, err := readFile(c.fs, u.Path)
	if err != nil {
		return nil, err
	}
	sources := []string{u.Path}

	// A template without a logic file binds nothing.
	logicText, err := afero.ReadFile(c.fs, u.LogicPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	default:
		sources = append(sources, u.LogicPath)
	}

	res, err := otama.Convert(markupText, otama.ParseLogic(string(logicText), c.logic), c.logic)
	if err != nil {
		return nil, err
	}
	if len(res.Unused) > 0 {
		c.log.Debug("logic labels not bound", "unit", u.Name, "labels", res.Unused)
	}

	out, err := erb.Convert(res.Text, c.opts)
	if err != nil {
		return nil, err
	}
	return &conversion{
		out:     out,
		sources: append(sources, out.Partials...),
	}, nil
}

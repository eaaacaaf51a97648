package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/gnituy18/tmake/internal/config"
	"github.com/gnituy18/tmake/internal/erb"
)

var (
	ErrNoTemplateRoot = errors.New("template root not found")
	ErrDuplicateUnit  = errors.New("duplicate unit name")
)

// Report summarizes one run.
type Report struct {
	Units     int
	Generated []string
	// Written lists the generated units whose artifact bytes changed.
	Written  []string
	UpToDate []string
	// Errors holds the per-unit failures, nil when there were none.
	Errors          *multierror.Error
	ManifestWritten bool
}

func (r *Report) Failed() int {
	if r.Errors == nil {
		return 0
	}
	return len(r.Errors.Errors)
}

type Driver struct {
	fs  afero.Fs
	cfg *config.Config
	log hclog.Logger
}

func New(fs afero.Fs, cfg *config.Config, logger hclog.Logger) *Driver {
	return &Driver{
		fs:  fs,
		cfg: cfg,
		log: logger.Named("build"),
	}
}

// Run converts every stale unit under the template root and rewrites the
// manifest. Unit failures are collected in the report; Run itself fails
// only when the template root or output directory is unusable or ctx is
// done.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, out := d.cfg.TemplateRoot, d.cfg.OutputDir

	info, err := d.fs.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoTemplateRoot, root)
	}
	if err := d.fs.MkdirAll(out, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	manifestPath := filepath.Join(out, ManifestFile)
	prev, err := ReadManifest(d.fs, manifestPath)
	if err != nil {
		d.log.Warn("ignoring previous manifest", "path", manifestPath, "error", err)
		prev = &Manifest{}
	}

	report := &Report{}
	units, errs := Discover(d.fs, d.cfg)
	report.Units = len(units)
	for _, err := range errs {
		report.Errors = multierror.Append(report.Errors, err)
	}

	converters := map[Dialect]converter{}
	owners := map[string]string{}
	next := &Manifest{}
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		log := d.log.With("unit", u.Name, "path", u.Path)

		if other, ok := owners[u.Name]; ok {
			err := fmt.Errorf("%s: %w %s, also used by %s", u.Path, ErrDuplicateUnit, u.Name, other)
			log.Error("unit skipped", "error", err)
			report.Errors = multierror.Append(report.Errors, err)
			continue
		}
		owners[u.Name] = u.Path

		entry, tracked := prev.Lookup(u.Name)
		if !d.facts(u, entry, tracked).Stale() {
			log.Debug("up to date")
			report.UpToDate = append(report.UpToDate, u.Name)
			next.Units = append(next.Units, entry)
			continue
		}

		conv, ok := converters[u.Dialect]
		if !ok {
			conv = newConverter(u.Dialect, d.fs, d.cfg, d.log)
			converters[u.Dialect] = conv
		}
		updated, written, err := d.generate(conv, u, log)
		if err != nil {
			log.Error("conversion failed", "error", err)
			report.Errors = multierror.Append(report.Errors, fmt.Errorf("%s: %w", u.Path, err))
			if tracked {
				next.Units = append(next.Units, entry)
			}
			continue
		}
		report.Generated = append(report.Generated, u.Name)
		if written {
			report.Written = append(report.Written, u.Name)
		}
		next.Units = append(next.Units, updated)
	}

	report.ManifestWritten, err = d.writeIfChanged(manifestPath, next.Bytes())
	if err != nil {
		report.Errors = multierror.Append(report.Errors, fmt.Errorf("write manifest: %w", err))
	}
	return report, nil
}

// generate converts u and writes its artifact, returning the unit's new
// manifest entry and whether the artifact bytes changed.
func (d *Driver) generate(conv converter, u Unit, log hclog.Logger) (ManifestUnit, bool, error) {
	c, err := conv.convert(u)
	if err != nil {
		return ManifestUnit{}, false, err
	}
	for _, w := range c.out.Warnings {
		log.Warn(w)
	}

	src, err := erb.Generate(erb.Shell{
		Name:    u.Name,
		Source:  d.rel(u.Path),
		Package: d.cfg.Package,
		Runtime: d.cfg.RuntimeImport,
	}, c.out)
	var ferr *erb.FormatError
	switch {
	case errors.As(err, &ferr):
		log.Warn("generated code left unformatted", "error", ferr.Err)
	case err != nil:
		return ManifestUnit{}, false, err
	}

	written, err := d.writeIfChanged(filepath.Join(d.cfg.OutputDir, u.Artifact()), src)
	if err != nil {
		return ManifestUnit{}, false, err
	}
	if written {
		log.Info("generated", "artifact", u.Artifact())
	} else {
		log.Debug("regenerated with no change")
	}

	entry := ManifestUnit{
		Name:     u.Name,
		Artifact: u.Artifact(),
		Mtimes:   map[string]string{},
	}
	for _, s := range c.sources {
		rel := d.rel(s)
		entry.Sources = append(entry.Sources, rel)
		if t := d.mtime(s); !t.IsZero() {
			entry.Mtimes[rel] = formatMtime(t)
		}
	}
	return entry, written, nil
}

// facts gathers the modification times of u's sources. Partials come from
// the unit's previous manifest entry.
func (d *Driver) facts(u Unit, entry ManifestUnit, tracked bool) Facts {
	f := Facts{
		Primary:   d.mtime(u.Path),
		Artifact:  d.mtime(filepath.Join(d.cfg.OutputDir, u.Artifact())),
		Untracked: !tracked,
	}
	current := map[string]time.Time{d.rel(u.Path): f.Primary}
	if u.LogicPath != "" {
		f.Logic = d.mtime(u.LogicPath)
		if !f.Logic.IsZero() {
			current[d.rel(u.LogicPath)] = f.Logic
		}
	}
	for _, s := range entry.Sources {
		t := d.mtime(filepath.Join(d.cfg.TemplateRoot, filepath.FromSlash(s)))
		if t.IsZero() {
			f.Missing = true
			continue
		}
		f.Partials = append(f.Partials, t)
		current[s] = t
	}

	f.Recorded = len(entry.Mtimes) > 0
	for s, t := range current {
		if entry.Mtimes[s] != formatMtime(t) {
			f.Recorded = false
			break
		}
	}
	return f
}

func formatMtime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (d *Driver) mtime(path string) time.Time {
	info, err := d.fs.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// writeIfChanged writes b to path unless the file already holds exactly b,
// in which case the file is left alone, modification time included.
func (d *Driver) writeIfChanged(path string, b []byte) (bool, error) {
	old, err := afero.ReadFile(d.fs, path)
	switch {
	case err == nil && bytes.Equal(old, b):
		return false, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return false, err
	}
	return true, afero.WriteFile(d.fs, path, b, 0o644)
}

// rel returns path relative to the template root in slash form, or path
// itself when it cannot be made relative.
func (d *Driver) rel(path string) string {
	r, err := filepath.Rel(d.cfg.TemplateRoot, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(r)
}

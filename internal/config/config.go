// Package config holds the settings of a tmake run and reads them from an
// optional HCL file:
//
//	template_root  = "views"
//	output_dir     = "gen/views"
//	package        = "views"
//	trim_mode      = "strong"
//	replace_marker = "%%"
//	exclude        = ["**/partial/**", "**/*_draft.*"]
//
//	dialect {
//	  inline_ext = ".erb"
//	  logic_ext  = ".otm"
//	}
//
// Expressions may read the environment through env, as in
// output_dir = "${env.TMAKE_OUT}/views".
package config

import (
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"

	"github.com/gnituy18/tmake/internal/erb"
	"github.com/gnituy18/tmake/internal/otama"
)

const DefaultFile = "tmake.hcl"

type Config struct {
	TemplateRoot  string
	OutputDir     string
	Package       string
	RuntimeImport string
	Trim          erb.TrimMode
	ReplaceMarker string
	// PartialDir is where partial names are resolved. Relative to the
	// working directory, like TemplateRoot.
	PartialDir string
	Exclude    []string

	InlineExt  string
	MarkupExt  string
	LogicExt   string
	PartialExt string
}

func Default() *Config {
	return &Config{
		TemplateRoot:  "views",
		OutputDir:     "gen/views",
		Package:       "views",
		RuntimeImport: erb.DefaultRuntime,
		Trim:          erb.TrimNormal,
		ReplaceMarker: otama.DefaultReplaceMarker,
		Exclude:       []string{"**/partial/**"},
		InlineExt:     ".erb",
		MarkupExt:     ".html",
		LogicExt:      ".otm",
		PartialExt:    erb.DefaultPartialExt,
	}
}

// Partials returns PartialDir, defaulting to the partial directory under
// the template root.
func (c *Config) Partials() string {
	if c.PartialDir != "" {
		return c.PartialDir
	}
	return filepath.Join(c.TemplateRoot, "partial")
}

// File is the decoded form of a config file. Unset attributes keep the
// defaults.
type File struct {
	TemplateRoot  *string      `hcl:"template_root"`
	OutputDir     *string      `hcl:"output_dir"`
	Package       *string      `hcl:"package"`
	RuntimeImport *string      `hcl:"runtime_import"`
	TrimMode      *string      `hcl:"trim_mode"`
	ReplaceMarker *string      `hcl:"replace_marker"`
	PartialDir    *string      `hcl:"partial_dir"`
	Exclude       *[]string    `hcl:"exclude"`
	Dialect       *DialectFile `hcl:"dialect,block"`
}

type DialectFile struct {
	InlineExt  *string `hcl:"inline_ext"`
	MarkupExt  *string `hcl:"markup_ext"`
	LogicExt   *string `hcl:"logic_ext"`
	PartialExt *string `hcl:"partial_ext"`
}

// Load reads the config file at filename from fs on top of the defaults.
func Load(fs afero.Fs, filename string) (*Config, error) {
	src, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes config file contents on top of the defaults.
func Parse(src []byte, filename string) (*Config, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config %s: %w", filename, diags)
	}

	var file File
	diags = gohcl.DecodeBody(f.Body, evalContext(), &file)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config %s: %w", filename, diags)
	}
	c := Default()
	if err := c.apply(&file); err != nil {
		return nil, fmt.Errorf("config %s: %w", filename, err)
	}
	return c, nil
}

func (c *Config) apply(f *File) error {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.TemplateRoot, f.TemplateRoot)
	set(&c.OutputDir, f.OutputDir)
	set(&c.Package, f.Package)
	set(&c.RuntimeImport, f.RuntimeImport)
	set(&c.ReplaceMarker, f.ReplaceMarker)
	set(&c.PartialDir, f.PartialDir)
	if f.Exclude != nil {
		c.Exclude = *f.Exclude
	}
	if f.TrimMode != nil {
		mode, err := erb.ParseTrimMode(*f.TrimMode)
		if err != nil {
			return err
		}
		c.Trim = mode
	}
	if d := f.Dialect; d != nil {
		set(&c.InlineExt, d.InlineExt)
		set(&c.MarkupExt, d.MarkupExt)
		set(&c.LogicExt, d.LogicExt)
		set(&c.PartialExt, d.PartialExt)
	}
	return nil
}

func evalContext() *hcl.EvalContext {
	env := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = cty.StringVal(v)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(env),
		},
	}
}

// Validate reports every problem with c at once.
func (c *Config) Validate() error {
	var errs *multierror.Error
	if c.TemplateRoot == "" {
		errs = multierror.Append(errs, errors.New("template_root must not be empty"))
	}
	if c.OutputDir == "" {
		errs = multierror.Append(errs, errors.New("output_dir must not be empty"))
	}
	if !token.IsIdentifier(c.Package) {
		errs = multierror.Append(errs, fmt.Errorf("package %q is not a Go identifier", c.Package))
	}
	if c.RuntimeImport == "" {
		errs = multierror.Append(errs, errors.New("runtime_import must not be empty"))
	}
	if c.ReplaceMarker == "" {
		errs = multierror.Append(errs, errors.New("replace_marker must not be empty"))
	}
	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			errs = multierror.Append(errs, fmt.Errorf("invalid exclude pattern %q", pattern))
		}
	}

	exts := map[string]string{}
	for _, e := range []struct{ name, ext string }{
		{"inline_ext", c.InlineExt},
		{"markup_ext", c.MarkupExt},
		{"logic_ext", c.LogicExt},
	} {
		if !strings.HasPrefix(e.ext, ".") || len(e.ext) < 2 {
			errs = multierror.Append(errs, fmt.Errorf("%s %q must start with a dot", e.name, e.ext))
			continue
		}
		if other, ok := exts[e.ext]; ok {
			errs = multierror.Append(errs, fmt.Errorf("%s and %s are both %q", other, e.name, e.ext))
		}
		exts[e.ext] = e.name
	}
	if !strings.HasPrefix(c.PartialExt, ".") {
		errs = multierror.Append(errs, fmt.Errorf("partial_ext %q must start with a dot", c.PartialExt))
	}
	return errs.ErrorOrNil()
}

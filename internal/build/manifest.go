package build

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
)

const ManifestFile = "tmake.manifest.hcl"

// Manifest records, for every unit, its artifact and the files it was
// generated from.
type Manifest struct {
	Units []ManifestUnit `hcl:"unit,block"`
}

type ManifestUnit struct {
	Name     string   `hcl:"name,label"`
	Artifact string   `hcl:"artifact"`
	Sources  []string `hcl:"sources"`
	// Mtimes holds the modification time, in RFC 3339 form, each source had
	// when the unit was last generated.
	Mtimes map[string]string `hcl:"mtimes,optional"`
}

// ReadManifest reads the manifest at path. A missing file is an empty
// manifest.
func ReadManifest(afs afero.Fs, path string) (*Manifest, error) {
	src, err := afero.ReadFile(afs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	f, diags := hclparse.NewParser().ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}
	var m Manifest
	if diags := gohcl.DecodeBody(f.Body, nil, &m); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, diags)
	}
	return &m, nil
}

func (m *Manifest) Lookup(name string) (ManifestUnit, bool) {
	for _, u := range m.Units {
		if u.Name == name {
			return u, true
		}
	}
	return ManifestUnit{}, false
}

// Bytes renders the manifest with units sorted by name.
func (m *Manifest) Bytes() []byte {
	units := append([]ManifestUnit(nil), m.Units...)
	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })

	f := hclwrite.NewEmptyFile()
	body := f.Body()
	for i, u := range units {
		if i > 0 {
			body.AppendNewline()
		}
		block := body.AppendNewBlock("unit", []string{u.Name}).Body()
		block.SetAttributeValue("artifact", cty.StringVal(u.Artifact))

		sources := cty.ListValEmpty(cty.String)
		if len(u.Sources) > 0 {
			vals := make([]cty.Value, 0, len(u.Sources))
			for _, s := range u.Sources {
				vals = append(vals, cty.StringVal(s))
			}
			sources = cty.ListVal(vals)
		}
		block.SetAttributeValue("sources", sources)

		if len(u.Mtimes) > 0 {
			vals := make(map[string]cty.Value, len(u.Mtimes))
			for k, v := range u.Mtimes {
				vals[k] = cty.StringVal(v)
			}
			block.SetAttributeValue("mtimes", cty.MapVal(vals))
		}
	}
	return hclwrite.Format(f.Bytes())
}

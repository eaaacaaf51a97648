package erb

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"
)

// DefaultRuntime is the import path of the package generated units call into.
const DefaultRuntime = "github.com/gnituy18/tmake/view"

// Shell describes the generated unit around a body.
type Shell struct {
	Name    string
	Source  string
	Package string
	Runtime string
}

// FormatError means the generated source could not be formatted, usually
// because template code is not valid Go. The unformatted source is still
// returned alongside it.
type FormatError struct {
	Unit string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format %s: %v", e.Unit, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

type unitFields struct {
	Name    string
	Source  string
	Package string
	Runtime string
	Imports []string
	Reserve int
	Body    string
}

var unitTmpl = template.Must(template.New("unit").Parse(defaultUnitTmpl))

const defaultUnitTmpl = `// Code generated by tmake from {{ .Source }}. DO NOT EDIT.

package {{ .Package }}

import (
	view "{{ .Runtime }}"
{{- range .Imports }}
	{{ . }}
{{- end }}
)

func {{ .Name }}(v *view.Context) {
	v.Grow({{ .Reserve }})
{{ .Body }}}

func init() {
	view.Register("{{ .Name }}", {{ .Name }})
}
`

// Generate renders out inside the unit shell and formats the result.
func Generate(sh Shell, out *Output) ([]byte, error) {
	if sh.Runtime == "" {
		sh.Runtime = DefaultRuntime
	}
	var buf bytes.Buffer
	if err := unitTmpl.Execute(&buf, unitFields{
		Name:    sh.Name,
		Source:  sh.Source,
		Package: sh.Package,
		Runtime: sh.Runtime,
		Imports: ImportSpecs(out.Includes),
		Reserve: len(out.Body),
		Body:    out.Body,
	}); err != nil {
		return nil, err
	}

	src, err := imports.Process(sh.Name+".go", buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return buf.Bytes(), &FormatError{Unit: sh.Name, Err: err}
	}
	return src, nil
}

// ImportSpecs turns include-buffer lines into import specs. "#include <x>"
// and "#include x" become "x"; a spec already holding a quoted path, with
// or without an alias, is kept as written.
func ImportSpecs(includes string) []string {
	var specs []string
	for _, line := range strings.Split(includes, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "#"))
		spec, ok := strings.CutPrefix(line, "include")
		if !ok {
			continue
		}
		spec = strings.TrimSpace(spec)
		switch {
		case spec == "":
			continue
		case strings.ContainsAny(spec, "\"`"):
		case strings.HasPrefix(spec, "<") && strings.HasSuffix(spec, ">"):
			spec = strconv.Quote(spec[1 : len(spec)-1])
		default:
			spec = strconv.Quote(spec)
		}
		specs = append(specs, spec)
	}
	return specs
}

// Package view is the runtime called by code generated by tmake. A
// generated view is a func(*Context) that appends the response body to its
// Context and registers itself under its unit name at init time.
package view

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Context carries the body being built and the variables exported to a
// view.
type Context struct {
	body    strings.Builder
	vars    map[string]any
	printer *message.Printer
}

// NewContext returns a Context translating literals for tag. vars may be nil.
func NewContext(tag language.Tag, vars map[string]any) *Context {
	if vars == nil {
		vars = map[string]any{}
	}
	return &Context{
		vars:    vars,
		printer: message.NewPrinter(tag),
	}
}

func (v *Context) Grow(n int) {
	v.body.Grow(n)
}

func (v *Context) Write(s string) {
	v.body.WriteString(s)
}

// Tr returns the translation of s for the context's language, or s itself
// when the catalog has none.
func (v *Context) Tr(s string) string {
	return v.printer.Sprintf(message.Key(s, strings.ReplaceAll(s, "%", "%%")))
}

// Set exports a variable to the view.
func (v *Context) Set(name string, value any) {
	v.vars[name] = value
}

// Var returns the exported variable name, or nil.
func (v *Context) Var(name string) any {
	return v.vars[name]
}

// Eh writes x HTML-escaped.
func (v *Context) Eh(x any) {
	v.body.WriteString(html.EscapeString(toString(x)))
}

// Echo writes x as is.
func (v *Context) Echo(x any) {
	v.body.WriteString(toString(x))
}

// Eh2 is Eh falling back to def when x renders empty.
func (v *Context) Eh2(x, def any) {
	v.Eh(orDefault(x, def))
}

// Echo2 is Echo falling back to def when x renders empty.
func (v *Context) Echo2(x, def any) {
	v.Echo(orDefault(x, def))
}

// Tehex writes the exported variable name HTML-escaped.
func (v *Context) Tehex(name string) {
	v.Eh(v.Var(name))
}

// Techoex writes the exported variable name as is.
func (v *Context) Techoex(name string) {
	v.Echo(v.Var(name))
}

func (v *Context) Tehex2(name string, def any) {
	v.Eh2(v.Var(name), def)
}

func (v *Context) Techoex2(name string, def any) {
	v.Echo2(v.Var(name), def)
}

// String returns the body written so far.
func (v *Context) String() string {
	return v.body.String()
}

func orDefault(x, def any) string {
	if s := toString(x); s != "" {
		return s
	}
	return toString(def)
}

func toString(x any) string {
	switch x := x.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}
	return fmt.Sprint(x)
}

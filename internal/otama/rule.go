package otama

import (
	"fmt"
	"strings"
)

type Op int

const (
	TagReplacement Op = iota
	ContentAssignment
	AttributeSet
	TagMerging
)

// bindOrder is the order operators are applied to one element.
var bindOrder = []Op{ContentAssignment, TagMerging, AttributeSet, TagReplacement}

func (o Op) Sigil() string {
	switch o {
	case TagReplacement:
		return ":"
	case ContentAssignment:
		return "~"
	case AttributeSet:
		return "+"
	case TagMerging:
		return "|=="
	}
	return ""
}

func (o Op) String() string {
	switch o {
	case TagReplacement:
		return "TagReplacement"
	case ContentAssignment:
		return "ContentAssignment"
	case AttributeSet:
		return "AttributeSet"
	case TagMerging:
		return "TagMerging"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

type Echo int

const (
	NoEcho Echo = iota
	NormalEcho
	EscapeEcho
	ExportVarEcho
	ExportVarEscapeEcho
)

// Body is either Simple or Block.
type Body interface {
	isBody()
}

// Simple is a single piece of code with an optional fallback.
type Simple struct {
	Code    string
	Default string
}

// Block wraps the element, or its content, between two pieces of code.
// Close may be empty.
type Block struct {
	Open  string
	Close string
}

func (Simple) isBody() {}
func (Block) isBody()  {}

type Rule struct {
	Label string
	Op    Op
	Echo  Echo
	Body  Body
}

// Rule returns the rule for label and op, taken from the first value of the
// label carrying op's sigil. It reports false when there is none or when its
// code is empty.
func (l *Logic) Rule(label string, op Op) (Rule, bool) {
	sigil := op.Sigil()
	for _, v := range l.entries[label] {
		rest, ok := strings.CutPrefix(v, sigil)
		if !ok {
			continue
		}
		r := Rule{Label: label, Op: op}
		rest, r.Echo = cutEcho(rest, op)

		rest = strings.TrimSpace(rest)
		if rest == "" {
			return Rule{}, false
		}
		if open, closing, ok := strings.Cut(rest, l.marker); ok && (op == ContentAssignment || op == TagReplacement) {
			r.Echo = NoEcho
			r.Body = Block{Open: strings.TrimSpace(open), Close: strings.TrimSpace(closing)}
			return r, true
		}
		code, def := splitDefault(rest)
		r.Body = Simple{Code: code, Default: def}
		return r, true
	}
	return Rule{}, false
}

func cutEcho(s string, op Op) (string, Echo) {
	if op == TagMerging {
		if rest, ok := strings.CutPrefix(s, "$"); ok {
			return rest, ExportVarEcho
		}
		return s, NormalEcho
	}
	for _, e := range []struct {
		prefix string
		echo   Echo
	}{
		{"==$", ExportVarEcho},
		{"=$", ExportVarEscapeEcho},
		{"==", NormalEcho},
		{"=", EscapeEcho},
	} {
		if rest, ok := strings.CutPrefix(s, e.prefix); ok {
			return rest, e.echo
		}
	}
	return s, NoEcho
}

// splitDefault splits s on the first %|% that is not inside a quoted run.
func splitDefault(s string) (string, string) {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case strings.HasPrefix(s[i:], "%|%"):
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+3:])
		}
	}
	return s, ""
}

// Phrase renders a Simple rule as one inline-tag directive.
func (r Rule) Phrase() string {
	s, ok := r.Body.(Simple)
	if !ok {
		return ""
	}
	code := strings.TrimRight(s.Code, ";")

	var open string
	switch r.Echo {
	case NoEcho:
		return "<% " + code + " %>"
	case NormalEcho:
		open = "<%== "
	case EscapeEcho:
		open = "<%= "
	case ExportVarEcho:
		open = "<%==$ "
	case ExportVarEscapeEcho:
		open = "<%=$ "
	}
	if s.Default != "" {
		code += " %|% " + s.Default
	}
	return open + code + " +%>"
}

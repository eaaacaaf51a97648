// Package otama converts plain markup annotated with data-tf labels, plus a
// logic file describing what each label does, into inline-tag template
// text.
//
// A logic file is a list of label blocks separated by blank lines:
//
//	#title
//	:= post.Title
//
//	#items
//	~ for _, it := range items { %% }
//
//	@link
//	+= href
//
// The value's leading sigil picks the operator: ':' replaces the element,
// '~' replaces its content, '+' adds an attribute and '|==' merges the
// element with markup produced at run time. A value with no sigil replaces
// the element.
package otama

import (
	"strings"

	"github.com/gnituy18/tmake/internal/erb"
)

const (
	DefaultReplaceMarker = "%%"

	includeLabel = "#include"
	initLabel    = "#init"
)

type Options struct {
	// ReplaceMarker splits a block value into its opening and closing code.
	ReplaceMarker string
	Trim          erb.TrimMode
}

func (o Options) marker() string {
	if o.ReplaceMarker == "" {
		return DefaultReplaceMarker
	}
	return o.ReplaceMarker
}

// Logic is a parsed logic file: a multimap from label to values, the
// include entries and the init code.
type Logic struct {
	entries  map[string][]string
	labels   []string
	includes []string
	init     []string
	marker   string
}

// ParseLogic parses the text of a logic file. It never fails; lines that are
// neither labels nor continuations are ignored.
func ParseLogic(text string, opts Options) *Logic {
	l := &Logic{
		entries: map[string][]string{},
		marker:  opts.marker(),
	}

	var (
		label  string
		value  []string
		active bool
	)
	flush := func() {
		if active {
			l.add(label, strings.TrimSpace(strings.Join(value, "\n")))
		}
		active = false
		value = value[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if name, rest, ok := labelLine(line); ok {
			if name == includeLabel && rest != "" && isBlank(rest[0]) {
				if inc := strings.TrimSpace(rest); inc != "" {
					l.includes = append(l.includes, inc)
				}
				continue
			}
			flush()
			label, active = name, true
			value = append(value, rest)
			continue
		}

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if active {
			value = append(value, line)
		}
	}
	flush()
	return l
}

// labelLine reports whether line starts a label: '#' or '@' followed
// directly by a run of [A-Za-z0-9_].
func labelLine(line string) (string, string, bool) {
	if len(line) < 2 || (line[0] != '#' && line[0] != '@') || isBlank(line[1]) {
		return "", "", false
	}
	i := 1
	for i < len(line) && isWordByte(line[i]) {
		i++
	}
	if i == 1 {
		return "", "", false
	}
	return line[:i], line[i:], true
}

func (l *Logic) add(label, value string) {
	if label == initLabel {
		if value != "" {
			l.init = append(l.init, value)
		}
		return
	}
	if !hasOperator(value) {
		value = ":" + value
	}
	if _, ok := l.entries[label]; !ok {
		l.labels = append(l.labels, label)
	}
	l.entries[label] = append(l.entries[label], value)
}

func hasOperator(value string) bool {
	for _, p := range []string{":", "~", "+", "|=="} {
		if strings.HasPrefix(value, p) {
			return true
		}
	}
	return false
}

// Values returns the values stored under label, in file order.
func (l *Logic) Values(label string) []string {
	return l.entries[label]
}

// Labels returns every label with at least one value, in file order.
func (l *Logic) Labels() []string {
	return l.labels
}

// Includes returns the include entries, in file order.
func (l *Logic) Includes() []string {
	return l.includes
}

// Init returns the init code, every #init block joined by a newline.
func (l *Logic) Init() string {
	return strings.Join(l.init, "\n")
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f'
}

func isWordByte(c byte) bool {
	return c == '_' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

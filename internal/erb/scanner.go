package erb

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	openDelim    = "<%"
	closeDelim   = "%>"
	defaultDelim = "%|%"

	// MaxPartialDepth bounds the nesting of spliced partials.
	MaxPartialDepth = 10

	DefaultPartialExt = ".erb"
)

var partialPattern = regexp.MustCompile(`^\s*partial\s+"([^"]+)"\s*$`)

// PartialLoader resolves a partial name, as written in the template plus the
// partial extension, to a file path and its contents.
type PartialLoader interface {
	LoadPartial(name string) (path string, text string, err error)
}

type Options struct {
	Trim TrimMode
	// Partials resolves partial tags. A template referencing a partial with
	// no loader fails as unreadable.
	Partials PartialLoader
	// PartialExt is appended to partial names without an extension.
	// Defaults to DefaultPartialExt.
	PartialExt string
}

// Result is the outcome of scanning one template.
type Result struct {
	Segments []Segment
	// Includes is the include-code buffer: one "#include ..." line per
	// include directive, in template order.
	Includes string
	// Partials lists every partial file spliced in, first encounter first.
	Partials []string
	Warnings []string
}

type region struct {
	end  int
	path string
}

type scanner struct {
	data string
	pos  int
	opts Options
	res  *Result

	// regions holds the spliced partials enclosing the scan position,
	// outermost first.
	regions []region
	texts   map[string]partialText
	seen    map[string]bool
}

type partialText struct {
	path string
	text string
}

// Scan splits text into literal and directive segments.
func Scan(text string, opts Options) (*Result, error) {
	if opts.PartialExt == "" {
		opts.PartialExt = DefaultPartialExt
	}
	if opts.Trim == TrimStrong {
		text = StrongTrim(text)
	}

	s := &scanner{
		data:  text,
		opts:  opts,
		res:   &Result{},
		texts: map[string]partialText{},
		seen:  map[string]bool{},
	}
	for s.pos < len(s.data) {
		i := strings.Index(s.data[s.pos:], openDelim)
		if i < 0 {
			s.literal(s.data[s.pos:])
			break
		}
		s.literal(s.data[s.pos : s.pos+i])
		s.pos += i
		if err := s.tag(); err != nil {
			return nil, err
		}
	}
	return s.res, nil
}

func (s *scanner) literal(text string) {
	if text == "" {
		return
	}
	s.res.Segments = append(s.res.Segments, Segment{Kind: Literal, Code: text})
}

func (s *scanner) hasPrefix(prefix string) bool {
	return strings.HasPrefix(s.data[s.pos:], prefix)
}

func (s *scanner) tag() error {
	start := s.pos
	s.pos += len(openDelim)

	kind := RawCode
	switch {
	case s.hasPrefix("#"):
		s.pos++
		kind = Comment
		rest := strings.TrimLeft(s.data[s.pos:], " \t")
		if strings.HasPrefix(rest, "include ") || strings.HasPrefix(rest, "include\t") {
			kind = Include
		}
	case s.hasPrefix("="):
		s.pos++
		switch {
		case s.hasPrefix("=$"):
			s.pos += 2
			kind = EchoUnescapedExportVar
		case s.hasPrefix("$"):
			s.pos++
			kind = EchoEscapedExportVar
		case s.hasPrefix("="):
			s.pos++
			kind = EchoUnescaped
		default:
			kind = EchoEscaped
		}
	}

	code, def, err := s.body(start, !kind.IsEcho())
	if err != nil {
		return err
	}
	if kind.IsEcho() {
		code = strings.TrimSpace(code)
	}

	switch kind {
	case Include:
		s.res.Includes += "#" + strings.TrimSpace(code) + "\n"
	case Comment:
		if m := partialPattern.FindStringSubmatch(code); m != nil {
			return s.splice(start, m[1])
		}
	}
	s.res.Segments = append(s.res.Segments, Segment{Kind: kind, Code: code, Default: def})
	return nil
}

// body reads up to and including the close delimiter. autoSkip enables the
// trim-mode driven line skipping for code and comment tags.
func (s *scanner) body(start int, autoSkip bool) (string, string, error) {
	var buf [2][]byte
	cur := 0

	for s.pos < len(s.data) {
		if s.hasPrefix(closeDelim) {
			s.pos += len(closeDelim)

			var marker byte
			if b := buf[cur]; len(b) > 0 && (b[len(b)-1] == '-' || b[len(b)-1] == '+') {
				marker = b[len(b)-1]
				buf[cur] = b[:len(b)-1]
			}

			switch {
			case marker == '-':
				s.skipBlankLine()
			case marker == '+':
			case autoSkip && s.opts.Trim != TrimOff:
				s.skipBlankLine()
			}
			return string(buf[0]), strings.TrimSpace(string(buf[1])), nil
		}

		if s.hasPrefix(defaultDelim) {
			cur = 1
			s.pos += len(defaultDelim)
			continue
		}

		if c := s.data[s.pos]; c == '\'' || c == '"' {
			buf[cur] = append(buf[cur], s.quote()...)
			continue
		}
		buf[cur] = append(buf[cur], s.data[s.pos])
		s.pos++
	}

	return "", "", s.malformed(start)
}

// quote consumes a quoted run starting at the current position, including
// both quotes. Backslash escapes the following byte.
func (s *scanner) quote() string {
	start := s.pos
	q := s.data[s.pos]
	s.pos++
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		if c == '\\' {
			if s.pos < len(s.data) {
				s.pos++
			}
			continue
		}
		if c == q {
			break
		}
	}
	return s.data[start:s.pos]
}

// skipBlankLine skips ASCII whitespace through the next newline. It stops
// where it is at the first byte that is not ASCII whitespace.
func (s *scanner) skipBlankLine() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if c == '\n' {
			s.pos++
			return
		}
		if c >= utf8.RuneSelf || !isSpace(c) {
			return
		}
		s.pos++
	}
}

func (s *scanner) splice(start int, name string) error {
	// Drop regions the scan has already left.
	for len(s.regions) > 0 && s.regions[len(s.regions)-1].end <= start {
		s.regions = s.regions[:len(s.regions)-1]
	}

	if path.Ext(name) == "" {
		name += s.opts.PartialExt
	}

	if len(s.regions) >= MaxPartialDepth {
		chain := make([]string, 0, len(s.regions))
		for _, r := range s.regions {
			chain = append(chain, r.path)
		}
		msg := fmt.Sprintf("partial %q not expanded: nesting depth exceeds %d (%s)",
			name, MaxPartialDepth, strings.Join(chain, " -> "))
		for _, r := range s.regions {
			if r.path == s.texts[name].path {
				msg += ": cyclic partial reference"
				break
			}
		}
		s.res.Warnings = append(s.res.Warnings, msg)
		s.res.Segments = append(s.res.Segments, Segment{Kind: Comment, Code: "partial \"" + name + "\""})
		return nil
	}

	p, ok := s.texts[name]
	if !ok {
		if s.opts.Partials == nil {
			return fmt.Errorf("%w: partial %q: no partial loader", ErrUnreadable, name)
		}
		file, text, err := s.opts.Partials.LoadPartial(name)
		if err != nil {
			return fmt.Errorf("partial %q: %w", name, err)
		}
		if s.opts.Trim == TrimStrong {
			text = StrongTrim(text)
		}
		p = partialText{path: file, text: text}
		s.texts[name] = p
	}
	if !s.seen[p.path] {
		s.seen[p.path] = true
		s.res.Partials = append(s.res.Partials, p.path)
	}

	s.data = s.data[:s.pos] + p.text + s.data[s.pos:]
	for i := range s.regions {
		s.regions[i].end += len(p.text)
	}
	s.regions = append(s.regions, region{end: s.pos + len(p.text), path: p.path})
	return nil
}

func (s *scanner) malformed(start int) error {
	line := 1 + strings.Count(s.data[:start], "\n")
	col := start - strings.LastIndex(s.data[:start], "\n")
	err := &MalformedTagError{Line: line, Column: col}
	for i := len(s.regions) - 1; i >= 0; i-- {
		if start < s.regions[i].end {
			err.Partial = s.regions[i].path
			break
		}
	}
	return err
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// StrongTrim drops blank lines, trims ASCII whitespace from both ends of
// every remaining line and from the result as a whole.
func StrongTrim(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, line := range strings.Split(text, "\n") {
		if line = trimASCII(line); line != "" {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return trimASCII(b.String())
}

func trimASCII(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

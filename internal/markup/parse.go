package markup

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse builds a tree from text. It never reorders or repairs the input: an
// end tag closes the nearest open element of the same name, elements left
// open simply have no end tag, and an end tag matching nothing is kept as a
// raw node.
//
// The body of a script whose type is neither JavaScript nor JSON is parsed
// as markup, so client-side templates get elements of their own.
func Parse(text string) (*Tree, error) {
	t := New()
	if err := t.parseInto(0, text); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) parseInto(parent int, text string) error {
	stack := []int{parent}

	z := html.NewTokenizer(strings.NewReader(text))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return err
			}
			return nil
		}

		// TagName and TagAttr rewrite the token buffer in place.
		raw := string(z.Raw())
		top := stack[len(stack)-1]

		switch tt {
		case html.TextToken:
			if len(stack) > 1 && t.isTemplateScript(top) && len(t.nodes[top].Children) == 0 {
				if err := t.parseInto(top, raw); err != nil {
					return err
				}
				continue
			}
			t.AppendChild(top, t.add(&Node{Type: TextNode, Data: raw, Parent: -1}))

		case html.CommentToken:
			t.AppendChild(top, t.add(&Node{Type: CommentNode, Data: raw, Parent: -1}))

		case html.DoctypeToken:
			t.AppendChild(top, t.add(&Node{Type: DoctypeNode, Data: raw, Parent: -1}))

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			n := &Node{
				Type:        ElementNode,
				Data:        string(name),
				DataAtom:    atom.Lookup(name),
				Parent:      -1,
				SelfClosing: tt == html.SelfClosingTagToken,
				start:       raw,
			}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				n.Attr = append(n.Attr, Attr{Key: string(key), Val: string(val)})
			}
			if spans := rawAttrs(raw); len(spans) == len(n.Attr) {
				for i := range n.Attr {
					n.Attr[i].raw = spans[i]
				}
			}
			id := t.add(n)
			t.AppendChild(top, id)
			if !n.SelfClosing && !isVoidElement(n.Data) {
				stack = append(stack, id)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			i := len(stack) - 1
			for ; i > 0; i-- {
				if t.nodes[stack[i]].Data == string(name) {
					break
				}
			}
			if i == 0 {
				t.AppendChild(top, t.NewRaw(raw))
				continue
			}
			n := t.nodes[stack[i]]
			n.Closed = true
			n.end = raw
			stack = stack[:i]
		}
	}
}

// isTemplateScript reports whether id is a script element whose body is
// markup rather than code or data.
func (t *Tree) isTemplateScript(id int) bool {
	n := t.nodes[id]
	if n.Type != ElementNode || n.DataAtom != atom.Script {
		return false
	}
	typ, _ := n.Attribute("type")
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", "module", "text/javascript", "application/javascript",
		"text/ecmascript", "application/ecmascript",
		"application/json", "application/ld+json", "importmap", "speculationrules":
		return false
	}
	return true
}

// rawAttrs splits a start tag into the source text of each attribute that
// the tokenizer reports, following the tokenizer's own rules for where keys
// and values end.
func rawAttrs(tag string) []string {
	i := 1
	for i < len(tag) {
		c := tag[i]
		if isSpace(c) {
			i++
			break
		}
		if c == '/' || c == '>' {
			break
		}
		i++
	}
	i = skipSpace(tag, i)

	var spans []string
	for i < len(tag) && tag[i] != '>' {
		start := i
		for i < len(tag) {
			c := tag[i]
			if c == '=' && i == start {
				i++
				continue
			}
			if c == '=' || c == '/' || c == '>' || isSpace(c) {
				break
			}
			i++
		}
		keyEnd := i
		end := keyEnd

		j := skipSpace(tag, i)
		switch {
		case j == len(tag):
			i = j
		case tag[j] == '/':
			i = j + 1
		case tag[j] != '=':
			i = j
		default:
			end = j + 1
			j = skipSpace(tag, j+1)
			i = j
			if j == len(tag) {
				break
			}
			switch q := tag[j]; q {
			case '>':
			case '"', '\'':
				k := strings.IndexByte(tag[j+1:], q)
				if k < 0 {
					i = len(tag)
				} else {
					i = j + 1 + k + 1
				}
				end = i
			default:
				for i < len(tag) && tag[i] != '>' && !isSpace(tag[i]) {
					i++
				}
				end = i
			}
		}

		if keyEnd > start {
			spans = append(spans, tag[start:end])
		}
		i = skipSpace(tag, i)
	}
	return spans
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\n', '\r', '\t', '\f':
		return true
	}
	return false
}

// https://html.spec.whatwg.org/#void-elements
func isVoidElement(name string) bool {
	switch name {
	case "area", "base", "br", "col", "embed", "hr", "img", "input",
		"link", "meta", "source", "track", "wbr":
		return true
	}
	return false
}

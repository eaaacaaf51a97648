package view

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/gnituy18/tmake/internal/markup"
)

// Merged is an element merged by MergeElements, split into the parts a
// view renders separately.
type Merged struct {
	attrs    []markup.Attr
	text     string
	children string
}

// MergeElements merges the first element of the markup s2 into the first
// element of s1 when both have the same tag name. Attributes of s2 override
// those of s1, the leading text of s2 replaces that of s1 unless empty, and
// the children of s2 come before those of s1. s2 may be a string, a
// fmt.Stringer or anything else fmt can print.
func MergeElements(s1 string, s2 any) *Merged {
	t1, e1 := firstElement(s1)
	if e1 < 0 {
		return &Merged{}
	}
	m := split(t1, e1)

	t2, e2 := firstElement(toString(s2))
	if e2 < 0 || t1.Node(e1).Data != t2.Node(e2).Data {
		return m
	}
	other := split(t2, e2)

	for _, a := range other.attrs {
		m.setAttr(a)
	}
	if other.text != "" || (m.children == "" && other.children != "") {
		m.text = other.text
	}
	m.children = other.children + m.children
	return m
}

func firstElement(s string) (*markup.Tree, int) {
	t, err := markup.Parse(s)
	if err != nil {
		return nil, -1
	}
	id := -1
	t.Walk(0, func(n *markup.Node) bool {
		if id < 0 && n.Type == markup.ElementNode {
			id = n.ID
		}
		return id < 0
	})
	return t, id
}

func split(t *markup.Tree, id int) *Merged {
	n := t.Node(id)
	m := &Merged{attrs: append([]markup.Attr(nil), n.Attr...)}

	children := n.Children
	if len(children) > 0 && t.Node(children[0]).Type == markup.TextNode {
		m.text = t.Node(children[0]).Data
		children = children[1:]
	}
	var b strings.Builder
	for _, c := range children {
		t.RenderNode(&b, c)
	}
	m.children = b.String()
	return m
}

func (m *Merged) setAttr(a markup.Attr) {
	for i := range m.attrs {
		if m.attrs[i].Key == a.Key {
			m.attrs[i].Val = a.Val
			return
		}
	}
	m.attrs = append(m.attrs, a)
}

// Attributes renders the merged attributes, space separated.
func (m *Merged) Attributes() string {
	var b strings.Builder
	for i, a := range m.attrs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(a.Key)
		if a.Val != "" {
			b.WriteString(`="`)
			b.WriteString(html.EscapeString(a.Val))
			b.WriteString(`"`)
		}
	}
	return b.String()
}

// Text returns the merged leading text, unescaped.
func (m *Merged) Text() string {
	return html.UnescapeString(m.text)
}

// Children renders the merged child markup.
func (m *Merged) Children() string {
	return m.children
}

package markup

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// String renders the whole tree.
func (t *Tree) String() string {
	var b strings.Builder
	t.Render(&b)
	return b.String()
}

func (t *Tree) Render(w io.StringWriter) error {
	return t.render(w, t.nodes[0])
}

// RenderNode renders id and its subtree.
func (t *Tree) RenderNode(w io.StringWriter, id int) error {
	return t.render(w, t.nodes[id])
}

// RenderChildren renders the children of id without id itself.
func (t *Tree) RenderChildren(w io.StringWriter, id int) error {
	for _, c := range t.nodes[id].Children {
		if err := t.render(w, t.nodes[c]); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) render(w io.StringWriter, n *Node) error {
	switch n.Type {
	case DocumentNode:
		return t.RenderChildren(w, n.ID)

	case ElementNode:
		if _, err := w.WriteString(t.StartTag(n.ID)); err != nil {
			return err
		}
		if err := t.RenderChildren(w, n.ID); err != nil {
			return err
		}
		if !n.Closed {
			return nil
		}
		if n.end != "" {
			_, err := w.WriteString(n.end)
			return err
		}
		if _, err := w.WriteString("</"); err != nil {
			return err
		}
		if _, err := w.WriteString(n.Data); err != nil {
			return err
		}
		if _, err := w.WriteString(">"); err != nil {
			return err
		}
		return nil
	}

	_, err := w.WriteString(n.Data)
	return err
}

// StartTag returns the start tag of element id as it renders: the source
// text when the element's attributes were never changed, otherwise a tag
// rebuilt from Attr.
func (t *Tree) StartTag(id int) string {
	n := t.nodes[id]
	if n.Type != ElementNode {
		return ""
	}
	if !n.dirty && n.start != "" {
		return n.start
	}

	var b strings.Builder
	b.WriteString("<")
	b.WriteString(n.Data)
	b.WriteString(AttributesString(n.Attr))
	if n.SelfClosing {
		b.WriteString("/")
	}
	b.WriteString(">")
	return b.String()
}

// AttributesString renders attrs with a space before each one. Parsed
// attributes keep their source text; others get a double-quoted, escaped
// value.
func AttributesString(attrs []Attr) string {
	var b strings.Builder
	for _, a := range attrs {
		b.WriteString(" ")
		if a.raw != "" {
			b.WriteString(a.raw)
			continue
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

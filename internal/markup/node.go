// Package markup is a lenient, order-preserving markup tree. Nodes live in
// an arena addressed by stable integer ids, so a node id stays valid no
// matter how the tree is rearranged. Text that is not touched renders back
// byte for byte, which keeps template directives embedded in the markup
// intact.
package markup

import (
	"slices"
	"strings"

	"golang.org/x/net/html/atom"
)

type NodeType int

const (
	DocumentNode NodeType = iota
	ElementNode
	TextNode
	CommentNode
	DoctypeNode
	// RawNode holds text inserted verbatim, such as template directives or
	// an end tag that closes nothing.
	RawNode
)

// Attr is one attribute. Set after parsing, an empty Val renders as a bare
// key.
type Attr struct {
	Key string
	Val string

	// raw is the attribute as written in the source, entities and quoting
	// included. Empty for attributes set after parsing.
	raw string
}

type Node struct {
	ID       int
	Type     NodeType
	Data     string
	DataAtom atom.Atom
	Attr     []Attr

	// Parent is -1 for the document and for detached nodes.
	Parent   int
	Children []int

	SelfClosing bool
	// Closed reports whether the element has an end tag.
	Closed bool

	start string
	end   string
	dirty bool
}

// Attribute returns the value of the first attribute named key.
func (n *Node) Attribute(key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr replaces the value of attribute key, appending it when absent.
func (n *Node) SetAttr(key, val string) {
	n.dirty = true
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i] = Attr{Key: key, Val: val}
			return
		}
	}
	n.Attr = append(n.Attr, Attr{Key: key, Val: val})
}

func (n *Node) RemoveAttr(key string) {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			attrs = append(attrs, a)
		}
	}
	if len(attrs) != len(n.Attr) {
		n.dirty = true
	}
	n.Attr = attrs
}

func (n *Node) ClearAttrs() {
	n.Attr = nil
	n.dirty = true
}

// Tree is an arena of nodes. Node 0 is the document.
type Tree struct {
	nodes []*Node
}

// New returns a tree holding only the document node.
func New() *Tree {
	t := &Tree{}
	t.add(&Node{Type: DocumentNode, Parent: -1})
	return t
}

func (t *Tree) add(n *Node) int {
	n.ID = len(t.nodes)
	t.nodes = append(t.nodes, n)
	return n.ID
}

func (t *Tree) Root() *Node { return t.nodes[0] }

// Node returns the node with the given id.
func (t *Tree) Node(id int) *Node { return t.nodes[id] }

// Len returns the number of nodes ever allocated, detached ones included.
func (t *Tree) Len() int { return len(t.nodes) }

// NewRaw allocates a detached raw node.
func (t *Tree) NewRaw(text string) int {
	return t.add(&Node{Type: RawNode, Data: text, Parent: -1})
}

// NewText allocates a detached text node.
func (t *Tree) NewText(text string) int {
	return t.add(&Node{Type: TextNode, Data: text, Parent: -1})
}

func (t *Tree) AppendChild(parent, child int) {
	t.InsertChild(parent, -1, child)
}

// InsertChild attaches child under parent at index. An index out of range
// appends.
func (t *Tree) InsertChild(parent, index, child int) {
	t.Remove(child)
	p := t.nodes[parent]
	if index < 0 || index >= len(p.Children) {
		p.Children = append(p.Children, child)
	} else {
		p.Children = slices.Insert(p.Children, index, child)
	}
	t.nodes[child].Parent = parent
}

func (t *Tree) InsertBefore(ref, child int) {
	parent := t.nodes[ref].Parent
	t.Remove(child)
	t.InsertChild(parent, t.index(ref), child)
}

func (t *Tree) InsertAfter(ref, child int) {
	parent := t.nodes[ref].Parent
	t.Remove(child)
	t.InsertChild(parent, t.index(ref)+1, child)
}

// Remove detaches id, with its subtree, from its parent.
func (t *Tree) Remove(id int) {
	n := t.nodes[id]
	if n.Parent < 0 {
		return
	}
	p := t.nodes[n.Parent]
	if i := t.index(id); i >= 0 {
		p.Children = slices.Delete(p.Children, i, i+1)
	}
	n.Parent = -1
}

func (t *Tree) RemoveChildren(id int) {
	n := t.nodes[id]
	for _, c := range n.Children {
		t.nodes[c].Parent = -1
	}
	n.Children = nil
}

// Replace puts with in the place of id and detaches id.
func (t *Tree) Replace(id, with int) {
	if t.nodes[id].Parent < 0 {
		return
	}
	t.InsertBefore(id, with)
	t.Remove(id)
}

// Unwrap replaces id by its children.
func (t *Tree) Unwrap(id int) {
	n := t.nodes[id]
	if n.Parent < 0 {
		return
	}
	parent, at := n.Parent, t.index(id)
	children := n.Children
	n.Children = nil
	t.Remove(id)
	for i, c := range children {
		t.nodes[c].Parent = -1
		t.InsertChild(parent, at+i, c)
	}
}

func (t *Tree) index(id int) int {
	n := t.nodes[id]
	if n.Parent < 0 {
		return -1
	}
	for i, c := range t.nodes[n.Parent].Children {
		if c == id {
			return i
		}
	}
	return -1
}

// NextSibling returns the id of the node following id, or -1.
func (t *Tree) NextSibling(id int) int {
	i := t.index(id)
	if i < 0 {
		return -1
	}
	siblings := t.nodes[t.nodes[id].Parent].Children
	if i+1 < len(siblings) {
		return siblings[i+1]
	}
	return -1
}

// FirstChild returns the id of the first child of id, or -1.
func (t *Tree) FirstChild(id int) int {
	if c := t.nodes[id].Children; len(c) > 0 {
		return c[0]
	}
	return -1
}

// HasAncestor reports whether id or one of its ancestors is an element a.
func (t *Tree) HasAncestor(id int, a atom.Atom) bool {
	for id >= 0 {
		n := t.nodes[id]
		if n.Type == ElementNode && n.DataAtom == a {
			return true
		}
		id = n.Parent
	}
	return false
}

// TrimLeadingNewline drops one leading "\n" from the text node id. Other
// node types are left alone.
func (t *Tree) TrimLeadingNewline(id int) {
	if id < 0 {
		return
	}
	if n := t.nodes[id]; n.Type == TextNode {
		n.Data = strings.TrimPrefix(n.Data, "\n")
	}
}

// Walk visits the subtree under id in document order. Returning false from
// fn skips the children of the visited node.
func (t *Tree) Walk(id int, fn func(n *Node) bool) {
	n := t.nodes[id]
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		t.Walk(c, fn)
	}
}

package otama

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html/atom"

	"github.com/gnituy18/tmake/internal/markup"
)

const (
	bindingAttr   = "data-tf"
	dummyLabel    = "@dummy"
	dummyTagLabel = "@dummytag"

	closeDelim       = " %>"
	closeDelimNoTrim = " +%>"
)

type varID struct {
	curr   int
	prefix string
}

func (id *varID) next() string {
	id.curr++
	return fmt.Sprintf("%s_%d", id.prefix, id.curr)
}

func newVarID(prefix string) *varID {
	return &varID{prefix: prefix}
}

// binding is everything needed to rewrite one labelled element, worked out
// before the tree is touched.
type binding struct {
	id     int
	label  string
	rules  []Rule
	script bool
	merge  string
}

func (b *binding) closeDelim() string {
	if b.script {
		return closeDelimNoTrim
	}
	return closeDelim
}

// Bind rewrites every element carrying data-tf according to logic and
// returns the labels that were found in the markup.
func Bind(tree *markup.Tree, logic *Logic) []string {
	bindings := collect(tree, logic)
	for i := len(bindings) - 1; i >= 0; i-- {
		bindings[i].apply(tree)
	}

	labels := make([]string, 0, len(bindings))
	for _, b := range bindings {
		labels = append(labels, b.label)
	}
	return labels
}

func collect(tree *markup.Tree, logic *Logic) []*binding {
	var (
		bindings []*binding
		mergeIDs = newVarID("tfMerge")
	)
	tree.Walk(0, func(n *markup.Node) bool {
		if n.Type != markup.ElementNode {
			return true
		}
		label, ok := n.Attribute(bindingAttr)
		if !ok {
			return true
		}
		b := &binding{
			id:     n.ID,
			label:  label,
			script: tree.HasAncestor(n.ID, atom.Script),
		}
		if label != dummyLabel && label != dummyTagLabel {
			for _, op := range bindOrder {
				r, ok := logic.Rule(label, op)
				if !ok {
					continue
				}
				if op == TagMerging {
					b.merge = mergeIDs.next()
				}
				b.rules = append(b.rules, r)
			}
		}
		bindings = append(bindings, b)
		return true
	})
	return bindings
}

func (b *binding) apply(tree *markup.Tree) {
	tree.Node(b.id).RemoveAttr(bindingAttr)

	switch b.label {
	case dummyLabel:
		next := tree.NextSibling(b.id)
		tree.Remove(b.id)
		tree.TrimLeadingNewline(next)
		return

	case dummyTagLabel:
		tree.TrimLeadingNewline(tree.FirstChild(b.id))
		tree.TrimLeadingNewline(tree.NextSibling(b.id))
		tree.Unwrap(b.id)
		return
	}

	for _, r := range b.rules {
		switch r.Op {
		case ContentAssignment:
			b.assignContent(tree, r)
		case TagMerging:
			b.mergeTag(tree, r)
		case AttributeSet:
			tree.Node(b.id).SetAttr(r.Phrase(), "")
		case TagReplacement:
			b.replaceTag(tree, r)
		}
	}
}

func (b *binding) assignContent(tree *markup.Tree, r Rule) {
	switch body := r.Body.(type) {
	case Simple:
		tree.RemoveChildren(b.id)
		tree.AppendChild(b.id, tree.NewRaw(r.Phrase()))
	case Block:
		tree.InsertChild(b.id, 0, tree.NewRaw("<% "+body.Open+b.closeDelim()))
		if body.Close != "" {
			tree.AppendChild(b.id, tree.NewRaw("<% "+body.Close+b.closeDelim()))
		}
	}
}

func (b *binding) replaceTag(tree *markup.Tree, r Rule) {
	switch body := r.Body.(type) {
	case Simple:
		tree.Replace(b.id, tree.NewRaw(r.Phrase()))
	case Block:
		tree.InsertBefore(b.id, tree.NewRaw("<% "+body.Open+b.closeDelim()))
		if body.Close != "" {
			tree.InsertAfter(b.id, tree.NewRaw("<% "+body.Close+b.closeDelim()))
		}
	}
}

// mergeTag hands the element's start tag and leading text to
// view.MergeElements together with the rule's value, and renders the merged
// attributes, text and children in place of the originals.
func (b *binding) mergeTag(tree *markup.Tree, r Rule) {
	s, ok := r.Body.(Simple)
	if !ok {
		return
	}
	code := strings.TrimRight(s.Code, ";")
	if r.Echo == ExportVarEcho {
		code = "v.Var(" + strconv.Quote(code) + ")"
	}

	n := tree.Node(b.id)
	elem := tree.StartTag(b.id)
	first := tree.FirstChild(b.id)
	if first >= 0 && tree.Node(first).Type == markup.TextNode {
		elem += tree.Node(first).Data
		tree.Remove(first)
	}

	n.ClearAttrs()
	n.SetAttr("<% "+b.merge+" := view.MergeElements("+strconv.Quote(elem)+", ("+code+")); v.Echo("+b.merge+".Attributes())"+b.closeDelim(), "")
	tree.InsertChild(b.id, 0, tree.NewRaw("<% v.Eh("+b.merge+".Text()); v.Echo("+b.merge+".Children())"+b.closeDelim()))
}

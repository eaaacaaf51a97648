package otama

import (
	"fmt"
	"slices"

	"github.com/gnituy18/tmake/internal/erb"
	"github.com/gnituy18/tmake/internal/markup"
)

// Result is markup rewritten into inline-tag template text.
type Result struct {
	Text string
	// Unused lists logic labels that no element in the markup carries.
	Unused []string
}

// Convert binds logic to markupText and returns the rewritten text, with
// the include directives and the init code of logic at the top.
func Convert(markupText string, logic *Logic, opts Options) (*Result, error) {
	if opts.Trim == erb.TrimStrong {
		markupText = erb.StrongTrim(markupText)
	}
	tree, err := markup.Parse(markupText)
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	bound := Bind(tree, logic)

	at := 0
	for _, inc := range logic.Includes() {
		tree.InsertChild(0, at, tree.NewRaw("<%#include "+inc+closeDelim))
		at++
	}
	if init := logic.Init(); init != "" {
		tree.InsertChild(0, at, tree.NewRaw("<% "+init+closeDelim))
	}

	res := &Result{Text: tree.String()}
	for _, label := range logic.Labels() {
		if !slices.Contains(bound, label) {
			res.Unused = append(res.Unused, label)
		}
	}
	return res, nil
}

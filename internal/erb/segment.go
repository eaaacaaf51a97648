// Package erb compiles inline-tag templates into Go statements that build a
// response body through a *view.Context.
//
// A template is plain text with directives between <% and %>:
//
//	<%# comment %>            dropped
//	<%#include "strings" %>   import added to the generated unit
//	<%# partial "header" %>   partial template spliced in place
//	<% code %>                raw Go statement
//	<%= expr %>               escaped echo
//	<%== expr %>              unescaped echo
//	<%=$ name %>              escaped echo of an exported variable
//	<%==$ name %>             unescaped echo of an exported variable
//
// An echo may carry a fallback after %|%, used when the value renders empty:
//
//	<%= title %|% "untitled" %>
//
// A '-' right before %> swallows whitespace after the tag up to and including
// the next newline. The skip stops at the first non-whitespace byte, and any
// whitespace it has consumed before that byte stays dropped. A '+' disables
// the automatic swallowing done for code and comment tags.
package erb

import (
	"errors"
	"fmt"
	"strings"
)

type Kind int

const (
	Literal Kind = iota
	Comment
	Include
	RawCode
	EchoEscaped
	EchoUnescaped
	EchoEscapedExportVar
	EchoUnescapedExportVar
)

var kindNames = [...]string{
	Literal:                "Literal",
	Comment:                "Comment",
	Include:                "Include",
	RawCode:                "RawCode",
	EchoEscaped:            "EchoEscaped",
	EchoUnescaped:          "EchoUnescaped",
	EchoEscapedExportVar:   "EchoEscapedExportVar",
	EchoUnescapedExportVar: "EchoUnescapedExportVar",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsEcho reports whether k is one of the four echo directives.
func (k Kind) IsEcho() bool {
	return k >= EchoEscaped && k <= EchoUnescapedExportVar
}

// Segment is one piece of a scanned template. For literals Code holds the
// text; for directives it holds the primary code and Default the fallback
// code following %|% (empty when absent).
type Segment struct {
	Kind    Kind
	Code    string
	Default string
}

type TrimMode int

const (
	TrimOff TrimMode = iota
	TrimNormal
	TrimStrong
)

func (m TrimMode) String() string {
	switch m {
	case TrimOff:
		return "off"
	case TrimNormal:
		return "normal"
	case TrimStrong:
		return "strong"
	}
	return fmt.Sprintf("TrimMode(%d)", int(m))
}

// ParseTrimMode accepts the names "off", "normal" and "strong" as well as
// their numeric forms 0, 1 and 2.
func ParseTrimMode(s string) (TrimMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "0":
		return TrimOff, nil
	case "normal", "1":
		return TrimNormal, nil
	case "strong", "2":
		return TrimStrong, nil
	}
	return TrimOff, fmt.Errorf("invalid trim mode %q: must be 'off', 'normal' or 'strong'", s)
}

// ErrUnreadable marks a template, logic or partial file that could not be read.
var ErrUnreadable = errors.New("unreadable file")

// MalformedTagError reports a <% that is never closed.
type MalformedTagError struct {
	Line   int
	Column int
	// Partial is the partial file the tag was spliced from, if any.
	Partial string
}

func (e *MalformedTagError) Error() string {
	where := fmt.Sprintf("line %d, column %d", e.Line, e.Column)
	if e.Partial != "" {
		where += " (in partial " + e.Partial + ")"
	}
	return "unterminated tag at " + where
}

package otama

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLogic = `#include "strings"
#init
items := v.Items()

#title
= post.Title

#list
~ for _, it := range items { %% }

@link
+= href

@link
:== body %|% "none"

#raw
foo()

# not a label
#
#-x
plain line ignored
`

func TestParseLogic(t *testing.T) {
	l := ParseLogic(sampleLogic, Options{})

	assert.Equal(t, []string{`"strings"`}, l.Includes())
	assert.Equal(t, "items := v.Items()", l.Init())
	assert.Equal(t, []string{"#title", "#list", "@link", "#raw"}, l.Labels())

	want := map[string][]string{
		"#title": {":= post.Title"},
		"#list":  {"~ for _, it := range items { %% }"},
		"@link":  {"+= href", `:== body %|% "none"`},
		"#raw":   {":foo()"},
	}
	for label, values := range want {
		if diff := cmp.Diff(values, l.Values(label)); diff != "" {
			t.Errorf("values of %s mismatch (-want +got):\n%s", label, diff)
		}
	}
}

func TestParseLogicContinuationAndCRLF(t *testing.T) {
	l := ParseLogic("#body\r\n~ if ok {\r\n  %%\r\n}\r\n\r\n#init\r\na := 1\r\n#init b := 2\r\n", Options{})
	assert.Equal(t, []string{"~ if ok {\n  %%\n}"}, l.Values("#body"))
	assert.Equal(t, "a := 1\nb := 2", l.Init())
}

func TestParseLogicLabelClosesPrevious(t *testing.T) {
	l := ParseLogic("#a\n~= x\n#b := y\n  continued\n", Options{})
	assert.Equal(t, []string{"~= x"}, l.Values("#a"))
	assert.Equal(t, []string{":= y\n  continued"}, l.Values("#b"))
}

func TestParseLogicIncludeWithoutPayload(t *testing.T) {
	l := ParseLogic("#include\n= x\n\n#include   \n", Options{})
	assert.Empty(t, l.Includes())
	assert.Equal(t, []string{":= x"}, l.Values("#include"))
}

func TestRule(t *testing.T) {
	l := ParseLogic(`#a
:==$ name

#b
:=$ name

#c
|==$ extra

#d
|== attrs(u);

#e
:

#f
~= f("%|%") %|% "d"

#g
: if ok { %% }

#h
~ for _, x := range xs { %%

#i
+ checked
`, Options{})

	tests := []struct {
		label string
		op    Op
		want  Rule
		ok    bool
	}{
		{"#a", TagReplacement, Rule{Label: "#a", Op: TagReplacement, Echo: ExportVarEcho, Body: Simple{Code: "name"}}, true},
		{"#b", TagReplacement, Rule{Label: "#b", Op: TagReplacement, Echo: ExportVarEscapeEcho, Body: Simple{Code: "name"}}, true},
		{"#c", TagMerging, Rule{Label: "#c", Op: TagMerging, Echo: ExportVarEcho, Body: Simple{Code: "extra"}}, true},
		{"#d", TagMerging, Rule{Label: "#d", Op: TagMerging, Echo: NormalEcho, Body: Simple{Code: "attrs(u);"}}, true},
		{"#d", TagReplacement, Rule{}, false},
		{"#e", TagReplacement, Rule{}, false},
		{"#f", ContentAssignment, Rule{Label: "#f", Op: ContentAssignment, Echo: EscapeEcho, Body: Simple{Code: `f("%|%")`, Default: `"d"`}}, true},
		{"#g", TagReplacement, Rule{Label: "#g", Op: TagReplacement, Body: Block{Open: "if ok {", Close: "}"}}, true},
		{"#h", ContentAssignment, Rule{Label: "#h", Op: ContentAssignment, Body: Block{Open: "for _, x := range xs {"}}, true},
		{"#i", AttributeSet, Rule{Label: "#i", Op: AttributeSet, Body: Simple{Code: "checked"}}, true},
		{"#missing", TagReplacement, Rule{}, false},
	}
	for _, tt := range tests {
		got, ok := l.Rule(tt.label, tt.op)
		require.Equal(t, tt.ok, ok, "%s %s", tt.label, tt.op)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s %s mismatch (-want +got):\n%s", tt.label, tt.op, diff)
		}
	}
}

func TestRuleCustomMarker(t *testing.T) {
	l := ParseLogic("#a\n~ if x { @@ }\n\n#b\n~ a %% b\n", Options{ReplaceMarker: "@@"})

	r, ok := l.Rule("#a", ContentAssignment)
	require.True(t, ok)
	assert.Equal(t, Block{Open: "if x {", Close: "}"}, r.Body)

	r, ok = l.Rule("#b", ContentAssignment)
	require.True(t, ok)
	assert.Equal(t, Simple{Code: "a %% b"}, r.Body)
}

func TestPhrase(t *testing.T) {
	tests := []struct {
		echo Echo
		body Simple
		want string
	}{
		{NoEcho, Simple{Code: "foo();;"}, "<% foo() %>"},
		{NormalEcho, Simple{Code: "body"}, "<%== body +%>"},
		{EscapeEcho, Simple{Code: "body", Default: `"none"`}, `<%= body %|% "none" +%>`},
		{ExportVarEcho, Simple{Code: "name;"}, "<%==$ name +%>"},
		{ExportVarEscapeEcho, Simple{Code: "name"}, "<%=$ name +%>"},
	}
	for _, tt := range tests {
		r := Rule{Echo: tt.echo, Body: tt.body}
		assert.Equal(t, tt.want, r.Phrase())
	}
	assert.Equal(t, "", Rule{Body: Block{Open: "x"}}.Phrase())
}

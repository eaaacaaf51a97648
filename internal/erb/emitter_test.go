package erb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<body>Hello ... \n</body>",
			`	v.Write("<body>Hello ... \n</body>")` + "\n"},
		{"<body>Hello <%# this is comment!! %></body>",
			`	v.Write("<body>Hello ")` + "\n" + `	v.Write("</body>")` + "\n"},
		{"<body>Hello <%# this is comment!! %>   \n</body>",
			`	v.Write("<body>Hello ")` + "\n" + `	v.Write("</body>")` + "\n"},
		{"<body>Hello <%# this is \"comment!!\" %>\n</body>",
			`	v.Write("<body>Hello ")` + "\n" + `	v.Write("</body>")` + "\n"},
		{"<body>Hello <%# this is comment!! %>  \r\n</body>",
			`	v.Write("<body>Hello ")` + "\n" + `	v.Write("</body>")` + "\n"},
		{"<body>Hello <% int i; %></body>",
			`	v.Write("<body>Hello ")` + "\n\tint i;\n" + `	v.Write("</body>")` + "\n"},
		{`<body>Hello <% QString s("%>"); %></body>`,
			`	v.Write("<body>Hello ")` + "\n" + `	QString s("%>");` + "\n" + `	v.Write("</body>")` + "\n"},
		{"<body>Hello <%== vvv %></body>",
			`	v.Write("<body>Hello ")` + "\n\tv.Echo(vvv)\n" + `	v.Write("</body>")` + "\n"},
		{"<body>Hello <%= vvv %> \n</body>",
			`	v.Write("<body>Hello ")` + "\n\tv.Eh(vvv)\n" + `	v.Write(" \n</body>")` + "\n"},
		{"<body>Hello <%= vvv; -%> \n</body>",
			`	v.Write("<body>Hello ")` + "\n\tv.Eh(vvv)\n" + `	v.Write("</body>")` + "\n"},
		{"<body>Hello <% int i; -%> \r\n </body>",
			`	v.Write("<body>Hello ")` + "\n\tint i;\n" + `	v.Write(" </body>")` + "\n"},
		{"<body>Hello <% int i; %> \r\n</body>",
			`	v.Write("<body>Hello ")` + "\n\tint i;\n" + `	v.Write("</body>")` + "\n"},
		{"<body>Hello ... \r\n</body>",
			`	v.Write("<body>Hello ... \r\n</body>")` + "\n"},
		{"<body>Hello <%=$ hoge -%> \r\n </body>",
			`	v.Write("<body>Hello ")` + "\n" + `	v.Tehex("hoge")` + "\n" + `	v.Write(" </body>")` + "\n"},
		{"<body>Hello <%==$ hoge %> \r\n </body>",
			`	v.Write("<body>Hello ")` + "\n" + `	v.Techoex("hoge")` + "\n" + `	v.Write(" \r\n </body>")` + "\n"},
		{"<body><%# comment. %|% 33 %></body>",
			`	v.Write("<body>")` + "\n" + `	v.Write("</body>")` + "\n"},
		{"<body><%= number %|% 33 %></body>",
			`	v.Write("<body>")` + "\n\tv.Eh2(number, (33))\n" + `	v.Write("</body>")` + "\n"},
		{"<body><%== number %|% 33 %></body>",
			`	v.Write("<body>")` + "\n\tv.Echo2(number, (33))\n" + `	v.Write("</body>")` + "\n"},
		{"<body><%=$number %|% 33 %></body>",
			`	v.Write("<body>")` + "\n" + `	v.Tehex2("number", (33))` + "\n" + `	v.Write("</body>")` + "\n"},
		{"<body><%==$number %|% 33 -%>\t\n</body>",
			`	v.Write("<body>")` + "\n" + `	v.Techoex2("number", (33))` + "\n" + `	v.Write("</body>")` + "\n"},
		{`<body><%== "  %|%" %|% "%|%" -%>` + " \t \n</body>",
			`	v.Write("<body>")` + "\n" + `	v.Echo2("  %|%", ("%|%"))` + "\n" + `	v.Write("</body>")` + "\n"},
	}
	for _, tt := range tests {
		out, err := Convert(tt.in, Options{Trim: TrimNormal})
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, out.Body, "converting %q", tt.in)
	}
}

func TestStatement(t *testing.T) {
	tests := []struct {
		seg  Segment
		want string
	}{
		{Segment{Kind: Literal, Code: ""}, ""},
		{Segment{Kind: Literal, Code: `say "hi"\`}, `	v.Write("say \"hi\"\\")` + "\n"},
		{Segment{Kind: Literal, Code: "こんにちは\n"}, `	v.Write(v.Tr("こんにちは\n"))` + "\n"},
		{Segment{Kind: RawCode, Code: " for _, x := range xs { "}, "\tfor _, x := range xs {\n"},
		{Segment{Kind: RawCode, Code: " } "}, "\t};\n"},
		{Segment{Kind: RawCode, Code: " x++ ;; "}, "\tx++;\n"},
		{Segment{Kind: RawCode, Code: " ; "}, ""},
		{Segment{Kind: EchoEscaped, Code: "  "}, ""},
		{Segment{Kind: EchoUnescaped, Code: " ; ", Default: "1"}, ""},
		{Segment{Kind: EchoEscaped, Code: "a", Default: " ; "}, "\tv.Eh(a)\n"},
		{Segment{Kind: EchoEscapedExportVar, Code: ` we"ird `}, `	v.Tehex("we\"ird")` + "\n"},
		{Segment{Kind: Comment, Code: "anything"}, ""},
		{Segment{Kind: Include, Code: "include <fmt>"}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Statement(tt.seg), "%s %q", tt.seg.Kind, tt.seg.Code)
	}
}

func TestConvertKeepsLiteralsInOrder(t *testing.T) {
	out, err := Convert("a<%# x %>b<% y %>c", Options{Trim: TrimOff})
	require.NoError(t, err)
	assert.Equal(t, "\tv.Write(\"a\")\n\tv.Write(\"b\")\n\ty;\n\tv.Write(\"c\")\n", out.Body)
}

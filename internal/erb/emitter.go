package erb

import (
	"strconv"
	"strings"
)

// Output is a converted template, ready to be wrapped in a unit shell.
type Output struct {
	Includes string
	Body     string
	Partials []string
	Warnings []string
}

// Convert scans text and emits its body statements.
func Convert(text string, opts Options) (*Output, error) {
	res, err := Scan(text, opts)
	if err != nil {
		return nil, err
	}
	return &Output{
		Includes: res.Includes,
		Body:     Emit(res.Segments),
		Partials: res.Partials,
		Warnings: res.Warnings,
	}, nil
}

// Emit turns segments into Go statements, one per line, each indented by a
// tab. Comments and includes produce nothing.
func Emit(segs []Segment) string {
	var b strings.Builder
	for _, seg := range segs {
		b.WriteString(Statement(seg))
	}
	return b.String()
}

// Statement returns the line emitted for seg, or "" when it emits nothing.
func Statement(seg Segment) string {
	switch seg.Kind {
	case Literal:
		if seg.Code == "" {
			return ""
		}
		if isASCII(seg.Code) {
			return "\tv.Write(\"" + EscapeLiteral(seg.Code) + "\")\n"
		}
		return "\tv.Write(v.Tr(\"" + EscapeLiteral(seg.Code) + "\"))\n"

	case RawCode:
		code := semicolonTrim(seg.Code)
		if code == "" {
			return ""
		}
		if !strings.HasSuffix(code, "{") {
			code += ";"
		}
		return "\t" + code + "\n"

	case EchoEscaped, EchoUnescaped, EchoEscapedExportVar, EchoUnescapedExportVar:
		code := semicolonTrim(seg.Code)
		if code == "" {
			return ""
		}
		if seg.Kind == EchoEscapedExportVar || seg.Kind == EchoUnescapedExportVar {
			code = strconv.Quote(code)
		}
		name := echoFuncs[seg.Kind]
		if def := semicolonTrim(seg.Default); def != "" {
			return "\tv." + name + "2(" + code + ", (" + def + "))\n"
		}
		return "\tv." + name + "(" + code + ")\n"
	}
	return ""
}

var echoFuncs = map[Kind]string{
	EchoEscaped:            "Eh",
	EchoUnescaped:          "Echo",
	EchoEscapedExportVar:   "Tehex",
	EchoUnescapedExportVar: "Techoex",
}

// EscapeLiteral escapes backslash, double quote, newline and carriage return
// so that s can sit between double quotes in Go source.
func EscapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
)

func semicolonTrim(s string) string {
	for {
		s = strings.TrimSpace(s)
		if !strings.HasSuffix(s, ";") {
			return s
		}
		s = s[:len(s)-1]
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

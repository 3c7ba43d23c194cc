package htmldoc

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"

	"github.com/tsawler/docstruct/model"
)

// inlineState is the formatting in effect for a piece of text.
type inlineState struct {
	bold      bool
	italic    bool
	underline bool
	size      float64 // points; 0 when unknown
}

// textRun is a text node with the formatting it inherits.
type textRun struct {
	text  string
	state inlineState
}

// readInline returns the normalized text of content and the formatting
// that covers the majority of it. The block's own style is the starting
// state.
func readInline(block *html.Node, content []*html.Node) (string, model.Formatting) {
	base := applyElement(inlineState{}, block)

	var runs []textRun
	var sb strings.Builder
	for _, c := range content {
		collectRuns(c, base, &runs, &sb)
	}
	return normalizeText(sb.String()), majorityFormatting(runs)
}

// collectRuns appends the text below n to sb and records each text node
// with its inherited formatting.
func collectRuns(n *html.Node, st inlineState, runs *[]textRun, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		*runs = append(*runs, textRun{text: n.Data, state: st})
		return
	case html.ElementNode:
	default:
		return
	}

	if shouldSkipElement(n.Data) {
		return
	}
	if n.Data == "br" {
		sb.WriteString("\n")
		return
	}

	st = applyElement(st, n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectRuns(c, st, runs, sb)
	}

	switch {
	case isBlockElement(n), n.Data == "tr":
		sb.WriteString("\n")
	case n.Data == "td", n.Data == "th":
		sb.WriteString(" ")
	}
}

// applyElement returns st updated with the formatting n introduces,
// through its tag and its style attribute.
func applyElement(st inlineState, n *html.Node) inlineState {
	if n == nil || n.Type != html.ElementNode {
		return st
	}

	switch n.Data {
	case "strong", "b":
		st.bold = true
	case "em", "i":
		st.italic = true
	case "u", "ins":
		st.underline = true
	}

	for _, d := range styleDeclarations(n) {
		switch d.property {
		case "font-weight":
			st.bold = isBoldWeight(d.value)
		case "font-style":
			st.italic = d.value == "italic" || d.value == "oblique"
		case "text-decoration", "text-decoration-line":
			st.underline = strings.Contains(d.value, "underline")
		case "font-size":
			if pt, ok := parseFontSize(d.value); ok {
				st.size = pt
			}
		}
	}
	return st
}

type declaration struct {
	property string
	value    string
}

// styleDeclarations parses the style attribute of n. Unparseable styles
// yield no declarations.
func styleDeclarations(n *html.Node) []declaration {
	style := strings.TrimSpace(getAttr(n, "style"))
	if style == "" {
		return nil
	}
	// An unterminated last declaration loses its value in douceur.
	if !strings.HasSuffix(style, ";") {
		style += ";"
	}
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		return nil
	}

	out := make([]declaration, 0, len(decls))
	for _, d := range decls {
		value := strings.ToLower(strings.TrimSpace(d.Value))
		value = strings.TrimSpace(strings.TrimSuffix(value, "!important"))
		out = append(out, declaration{
			property: strings.ToLower(strings.TrimSpace(d.Property)),
			value:    value,
		})
	}
	return out
}

// alignment returns the text alignment in effect for n: the nearest
// align attribute, text-align declaration or <center> ancestor.
func alignment(n *html.Node) string {
	for p := n; p != nil && p.Data != "body"; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if p.Data == "center" {
			return "center"
		}
		align := ""
		if a := getAttr(p, "align"); a != "" {
			align = strings.ToLower(strings.TrimSpace(a))
		}
		for _, d := range styleDeclarations(p) {
			if d.property == "text-align" {
				align = d.value
			}
		}
		if align != "" {
			return align
		}
	}
	return ""
}

// isBoldWeight reports whether a font-weight value renders bold.
func isBoldWeight(v string) bool {
	switch v {
	case "bold", "bolder":
		return true
	}
	n, err := strconv.Atoi(v)
	return err == nil && n >= 600
}

// parseFontSize converts a CSS font-size in pt or px to points.
func parseFontSize(v string) (float64, bool) {
	factor := 1.0
	switch {
	case strings.HasSuffix(v, "pt"):
		v = strings.TrimSuffix(v, "pt")
	case strings.HasSuffix(v, "px"):
		v = strings.TrimSuffix(v, "px")
		factor = 0.75
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f * factor, true
}

// majorityFormatting derives formatting from text runs: a property holds
// when it covers more than half of the visible characters, and the font
// size is the size covering the most characters (ties go to the larger).
func majorityFormatting(runs []textRun) model.Formatting {
	var total, bold, italic, underline int
	sizes := make(map[float64]int)

	for _, r := range runs {
		n := visibleLen(r.text)
		if n == 0 {
			continue
		}
		total += n
		if r.state.bold {
			bold += n
		}
		if r.state.italic {
			italic += n
		}
		if r.state.underline {
			underline += n
		}
		if r.state.size > 0 {
			sizes[r.state.size] += n
		}
	}

	f := model.Formatting{
		Bold:      total > 0 && bold*2 > total,
		Italic:    total > 0 && italic*2 > total,
		Underline: total > 0 && underline*2 > total,
	}

	var size float64
	best := 0
	for s, w := range sizes {
		if w > best || (w == best && s > size) {
			size, best = s, w
		}
	}
	return f.WithFontSize(size)
}

// normalizeText collapses whitespace within lines and drops empty lines.
func normalizeText(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// visibleLen counts non-space runes.
func visibleLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

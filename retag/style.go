package retag

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// inlineStyle is the subset of a style attribute the re-tagger reads.
type inlineStyle struct {
	bold      bool
	notBold   bool
	italic    bool
	underline bool
	centered  bool
	fontSize  float64 // points; 0 when absent
	raw       map[string]string
}

// parseStyle parses a style attribute value leniently.
func parseStyle(s string) inlineStyle {
	st := inlineStyle{raw: make(map[string]string)}
	for _, decl := range strings.Split(s, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.ToLower(strings.TrimSpace(val))
		val = strings.TrimSpace(strings.TrimSuffix(val, "!important"))
		if prop == "" || val == "" {
			continue
		}
		st.raw[prop] = val

		switch prop {
		case "font-weight":
			if isBoldWeight(val) {
				st.bold = true
			} else {
				st.notBold = true
			}
		case "font-style":
			st.italic = val == "italic" || val == "oblique"
		case "text-decoration", "text-decoration-line":
			if strings.Contains(val, "underline") {
				st.underline = true
			}
		case "text-align":
			st.centered = val == "center"
		case "font-size":
			if pt, ok := parseFontSize(val); ok {
				st.fontSize = pt
			}
		}
	}
	return st
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

// parseFontSize converts a CSS font-size to points. Only absolute units
// are understood.
func parseFontSize(v string) (float64, bool) {
	v = strings.TrimSpace(v)
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

// formatStyle renders the kept properties of st, dropping the ones in
// consumed. Properties are emitted in a stable order.
func formatStyle(st inlineStyle, consumed ...string) string {
	skip := make(map[string]bool, len(consumed))
	for _, c := range consumed {
		skip[c] = true
	}
	var parts []string
	for _, prop := range []string{"font-size", "font-weight", "font-style", "text-decoration", "text-decoration-line", "text-align"} {
		if v, ok := st.raw[prop]; ok && !skip[prop] {
			parts = append(parts, prop+":"+v)
		}
	}
	return strings.Join(parts, ";")
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			if val == "" {
				n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			} else {
				n.Attr[i].Val = val
			}
			return
		}
	}
	if val != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	}
}

// rename changes the element name of n in place.
func rename(n *html.Node, tag string) {
	n.Data = tag
	n.DataAtom = atom.Lookup([]byte(tag))
}

// nodeBold reports whether n itself renders bold.
func nodeBold(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Strong, atom.B, atom.Th:
		st := parseStyle(getAttr(n, "style"))
		return !st.notBold
	}
	return parseStyle(getAttr(n, "style")).bold
}

// allBold reports whether every non-blank text node under root renders
// bold, considering ancestors up to and including root. It returns false
// when root has no visible text.
func allBold(root *html.Node) bool {
	found := false
	ok := true
	var walk func(n *html.Node, bold bool)
	walk = func(n *html.Node, bold bool) {
		if !ok {
			return
		}
		if n.Type == html.TextNode {
			if strings.TrimSpace(n.Data) != "" {
				found = true
				if !bold {
					ok = false
				}
			}
			return
		}
		if n.Type == html.ElementNode {
			if nodeBold(n) {
				bold = true
			} else if parseStyle(getAttr(n, "style")).notBold {
				bold = false
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, bold)
		}
	}
	walk(root, false)
	return found && ok
}

// effectiveFontSize returns the font size of n: its own declared size, or
// else the largest size declared by a descendant.
func effectiveFontSize(n *html.Node) float64 {
	if n.Type == html.ElementNode {
		if st := parseStyle(getAttr(n, "style")); st.fontSize > 0 {
			return st.fontSize
		}
	}
	var largest float64
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if size := effectiveFontSize(c); size > largest {
			largest = size
		}
	}
	return largest
}

// blockElements are elements that prevent a p/div from being treated as
// a single leaf block.
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Table: true, atom.Ul: true, atom.Ol: true,
	atom.Li: true, atom.Blockquote: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

func hasBlockDescendant(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (blockElements[c.DataAtom] || hasBlockDescendant(c)) {
			return true
		}
	}
	return false
}

// insideAny reports whether n has an ancestor with one of the given atoms.
func insideAny(n *html.Node, atoms ...atom.Atom) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		for _, a := range atoms {
			if p.Type == html.ElementNode && p.DataAtom == a {
				return true
			}
		}
	}
	return false
}

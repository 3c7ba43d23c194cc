package markup

import (
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type declaration struct {
	property string
	value    string
}

// styleSheet holds the simple rules of a document's <style> blocks,
// restricted to the properties that survive cleaning.
type styleSheet struct {
	byTag   map[string][]declaration
	byClass map[string][]declaration
}

func (s *styleSheet) empty() bool {
	return len(s.byTag) == 0 && len(s.byClass) == 0
}

// collectStyleSheet parses every <style> element under n. Only type
// selectors ("p", "h1") and class selectors (".c3", "span.c3") are kept;
// descendant, pseudo-class and attribute selectors are ignored.
func collectStyleSheet(n *html.Node) *styleSheet {
	sheet := &styleSheet{
		byTag:   make(map[string][]declaration),
		byClass: make(map[string][]declaration),
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Style {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			sheet.add(sb.String())
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sheet
}

func (s *styleSheet) add(text string) {
	ss, err := parser.Parse(text)
	if err != nil {
		return
	}
	for _, rule := range ss.Rules {
		if rule.Kind != css.QualifiedRule {
			continue
		}
		decls := keptDeclarations(rule.Declarations)
		if len(decls) == 0 {
			continue
		}
		for _, sel := range rule.Selectors {
			sel = strings.TrimSpace(sel)
			if strings.ContainsAny(sel, " >+~:[*#") {
				continue
			}
			tag, class, _ := strings.Cut(sel, ".")
			if strings.Contains(class, ".") {
				continue
			}
			switch {
			case class != "":
				s.byClass[class] = append(s.byClass[class], decls...)
			case tag != "":
				tag = strings.ToLower(tag)
				s.byTag[tag] = append(s.byTag[tag], decls...)
			}
		}
	}
}

// inlineStyles merges style sheet rules into each element's style
// attribute. Precedence follows the cascade for simple selectors: type
// rules, then class rules, then the element's own inline style.
func inlineStyles(n *html.Node, sheet *styleSheet) {
	if n.Type == html.ElementNode {
		var decls []declaration
		if !sheet.empty() {
			decls = append(decls, sheet.byTag[n.Data]...)
			for _, class := range strings.Fields(attr(n, "class")) {
				decls = append(decls, sheet.byClass[class]...)
			}
		}
		inline := attr(n, "style")
		if len(decls) > 0 || inline != "" {
			decls = append(decls, parseDeclarations(inline)...)
			if style := formatDeclarations(decls); style != "" {
				setAttr(n, "style", style)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		inlineStyles(c, sheet)
	}
}

// parseDeclarations parses an inline style attribute, keeping only the
// properties that survive cleaning.
func parseDeclarations(style string) []declaration {
	style = strings.TrimSpace(style)
	if style == "" {
		return nil
	}
	// douceur drops the value of an unterminated last declaration.
	decls, err := parser.ParseDeclarations(terminate(style))
	if err != nil {
		return nil
	}
	return keptDeclarations(decls)
}

func terminate(style string) string {
	if strings.HasSuffix(style, ";") {
		return style
	}
	return style + ";"
}

func keptDeclarations(decls []*css.Declaration) []declaration {
	var out []declaration
	for _, d := range decls {
		prop := strings.ToLower(strings.TrimSpace(d.Property))
		value := strings.ToLower(strings.TrimSpace(d.Value))
		if !isKeptProperty(prop) || value == "" {
			continue
		}
		out = append(out, declaration{property: prop, value: value})
	}
	return out
}

func isKeptProperty(prop string) bool {
	for _, p := range keptStyleProps {
		if p == prop {
			return true
		}
	}
	return false
}

// formatDeclarations renders declarations as a style attribute value.
// Later declarations of the same property win.
func formatDeclarations(decls []declaration) string {
	var order []string
	values := make(map[string]string)
	for _, d := range decls {
		if _, seen := values[d.property]; !seen {
			order = append(order, d.property)
		}
		values[d.property] = d.value
	}
	parts := make([]string, 0, len(order))
	for _, prop := range order {
		parts = append(parts, prop+":"+values[prop])
	}
	return strings.Join(parts, ";")
}

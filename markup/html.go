package markup

import (
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Style properties carried through cleaning. Everything else in a style
// attribute is vendor noise as far as re-tagging is concerned.
var keptStyleProps = []string{
	"font-size",
	"font-weight",
	"font-style",
	"text-decoration",
	"text-decoration-line",
	"text-align",
}

var alignValue = regexp.MustCompile(`(?i)^(left|right|center|justify)$`)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// htmlPolicy returns the whitelist applied to exported HTML. The policy is
// built once and shared; bluemonday policies are safe for concurrent use
// after construction.
func htmlPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements(
			"p", "div", "span", "br", "hr",
			"h1", "h2", "h3", "h4", "h5", "h6",
			"strong", "b", "em", "i", "u", "sup", "sub",
			"ul", "ol", "li", "blockquote",
			"table", "caption", "thead", "tbody", "tfoot", "tr", "td", "th",
		)
		p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")
		p.AllowAttrs("align").Matching(alignValue).OnElements(
			"p", "div", "td", "th", "h1", "h2", "h3", "h4", "h5", "h6",
		)
		p.AllowStandardURLs()
		p.AllowAttrs("href").OnElements("a")
		p.AllowStyles(keptStyleProps...).Globally()
		policy = p
	})
	return policy
}

// Elements whose content is never part of the document body.
var droppedElements = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Meta:     true,
	atom.Link:     true,
	atom.Title:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Iframe:   true,
	atom.Object:   true,
}

// Elements whose text content is not visible.
var invisibleText = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Title:    true,
	atom.Noscript: true,
	atom.Template: true,
}

// Block and inline elements removed when they contain only whitespace.
var emptyBlockTags = []string{
	"span", "strong", "b", "em", "i", "u",
	"p", "div", "li", "blockquote",
	"h1", "h2", "h3", "h4", "h5", "h6",
}

var emptyBlockPatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(emptyBlockTags))
	for _, tag := range emptyBlockTags {
		m[tag] = regexp.MustCompile(`(?i)<` + tag + `(?:\s[^>]*)?>(?:\s|&nbsp;|&#160;|\x{00a0}|<br\s*/?>)*</` + tag + `>`)
	}
	return m
}()

var (
	interTagSpace = regexp.MustCompile(`>\s+<`)
	repeatedSpace = regexp.MustCompile(`[ \t\r\n]{2,}`)
)

// cleanHTML runs the HTML cleaning pipeline: tree pruning and class
// inlining, whitelist sanitization, empty block removal and whitespace
// collapsing.
func cleanHTML(src string) (string, *removals) {
	removed := newRemovals()

	body := src
	if doc, err := html.Parse(strings.NewReader(src)); err == nil {
		sheet := collectStyleSheet(doc)
		prune(doc, removed)
		inlineStyles(doc, sheet)
		flattenContainers(doc)
		if b := findElement(doc, atom.Body); b != nil {
			wrapLooseText(b)
		}
		body = renderBody(doc)
	}

	before := countTags(body)
	out := htmlPolicy().Sanitize(body)
	after := countTags(out)
	for tag, n := range before {
		removed.add(tag, n-after[tag])
	}

	out = dropEmptyBlocks(out, removed)
	out = interTagSpace.ReplaceAllString(out, "> <")
	out = repeatedSpace.ReplaceAllString(out, " ")

	return strings.TrimSpace(out), removed
}

// prune removes comments and non-body elements, and unwraps the
// non-bold <b> wrapper some editors put around the whole clipboard
// payload.
func prune(n *html.Node, removed *removals) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.CommentNode:
			n.RemoveChild(c)
			removed.add("comment", 1)
		case c.Type == html.ElementNode && droppedElements[c.DataAtom]:
			n.RemoveChild(c)
			countSubtree(c, removed)
		case c.Type == html.ElementNode && isWrapperBold(c):
			prune(c, removed)
			unwrap(c)
			removed.add(c.Data, 1)
		default:
			prune(c, removed)
		}
		c = next
	}
}

// Sectioning elements the whitelist does not keep. They become plain
// divs so their content stays inside a block.
var sectioningElements = map[atom.Atom]bool{
	atom.Article: true,
	atom.Section: true,
	atom.Main:    true,
	atom.Header:  true,
	atom.Footer:  true,
	atom.Aside:   true,
	atom.Nav:     true,
	atom.Center:  true,
	atom.Form:    true,
}

// flattenContainers rewrites sectioning elements as <div>. A <center>
// keeps its meaning as a text-align declaration.
func flattenContainers(n *html.Node) {
	if n.Type == html.ElementNode && sectioningElements[n.DataAtom] {
		if n.DataAtom == atom.Center {
			style := strings.TrimSuffix(strings.TrimSpace(attr(n, "style")), ";")
			if style != "" {
				style += ";"
			}
			setAttr(n, "style", style+"text-align:center")
		}
		n.Data = "div"
		n.DataAtom = atom.Div
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		flattenContainers(c)
	}
}

// Block-level elements as far as wrapLooseText is concerned.
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Pre: true, atom.Blockquote: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Table: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

// wrapLooseText wraps runs of text and inline elements found directly in
// container into <p> elements, recursing into divs that also hold blocks.
func wrapLooseText(container *html.Node) {
	var run []*html.Node
	flush := func(before *html.Node) {
		if !hasVisibleText(run) {
			run = nil
			return
		}
		p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
		container.InsertBefore(p, before)
		for _, c := range run {
			container.RemoveChild(c)
			p.AppendChild(c)
		}
		run = nil
	}

	hasBlocks := false
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && blockElements[c.DataAtom] {
			hasBlocks = true
			break
		}
	}

	for c := container.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.ElementNode && blockElements[c.DataAtom]:
			flush(c)
			if c.DataAtom == atom.Div {
				wrapLooseText(c)
			}
		case c.Type == html.ElementNode && holdsBlock(c):
			flush(c)
		case c.Type == html.TextNode || c.Type == html.ElementNode:
			run = append(run, c)
		}
		c = next
	}
	if container.DataAtom == atom.Body || hasBlocks {
		flush(nil)
	} else {
		run = nil
	}
}

// holdsBlock reports whether an inline element wraps block content.
func holdsBlock(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (blockElements[c.DataAtom] || holdsBlock(c)) {
			return true
		}
	}
	return false
}

func hasVisibleText(nodes []*html.Node) bool {
	for _, n := range nodes {
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			return true
		}
		var kids []*html.Node
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			kids = append(kids, c)
		}
		if hasVisibleText(kids) {
			return true
		}
	}
	return false
}

// countSubtree records n and every element or comment below it.
func countSubtree(n *html.Node, removed *removals) {
	switch n.Type {
	case html.ElementNode:
		removed.add(n.Data, 1)
	case html.CommentNode:
		removed.add("comment", 1)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		countSubtree(c, removed)
	}
}

// isWrapperBold reports whether n is a <b> element that explicitly
// cancels its own boldness.
func isWrapperBold(n *html.Node) bool {
	if n.DataAtom != atom.B {
		return false
	}
	for _, d := range parseDeclarations(attr(n, "style")) {
		if d.property == "font-weight" && (d.value == "normal" || d.value == "400") {
			return true
		}
	}
	return strings.HasPrefix(attr(n, "id"), "docs-internal-guid")
}

// unwrap replaces n with its children.
func unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		c = next
	}
	parent.RemoveChild(n)
}

// renderBody renders the children of <body>, or the whole tree when no
// body element exists.
func renderBody(doc *html.Node) string {
	root := findElement(doc, atom.Body)
	if root == nil {
		root = doc
	}
	var sb strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			continue
		}
	}
	return sb.String()
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
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
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// dropEmptyBlocks removes whitespace-only elements until nothing changes,
// so nested empty wrappers disappear too.
func dropEmptyBlocks(s string, removed *removals) string {
	for {
		changed := false
		for _, tag := range emptyBlockTags {
			re := emptyBlockPatterns[tag]
			n := len(re.FindAllStringIndex(s, -1))
			if n == 0 {
				continue
			}
			s = re.ReplaceAllString(s, "")
			removed.add(tag, n)
			changed = true
		}
		if !changed {
			return s
		}
	}
}

// countTags counts start tags by name.
func countTags(s string) map[string]int {
	counts := make(map[string]int)
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return counts
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			counts[string(name)]++
		}
	}
}

// htmlText returns the visible text of an HTML string.
func htmlText(s string) string {
	var sb strings.Builder
	skip := 0
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return sb.String()
		case html.StartTagToken:
			name, _ := z.TagName()
			if invisibleText[atom.Lookup(name)] {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if invisibleText[atom.Lookup(name)] && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

// Package htmldoc reads semantic HTML into document nodes.
//
// The reader walks the body in document order. Headings, paragraphs, list
// items, block quotes and tables become model.Node values, and inline markup
// (strong, em, u and inline CSS) is folded into each node's Formatting.
// Heading elements carry their level as a style name ("Heading 2"), so the
// classifier treats semantic HTML and Word styles alike.
package htmldoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/tsawler/docstruct/model"
)

// ErrNoElements is returned for input that holds no HTML element at all.
var ErrNoElements = errors.New("htmldoc: no HTML elements found")

// Style names given to nodes read from semantic elements.
const (
	StyleTitle = "Title"
	StyleQuote = "Quote"
)

// Reader provides access to the nodes of an HTML document.
type Reader struct {
	doc   *html.Node
	nodes []model.Node
}

// Parse reads markup and returns its nodes in document order.
func Parse(markup string) ([]model.Node, error) {
	r, err := OpenReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return r.Nodes(), nil
}

// ParseFragment reads nodes from markup that is already known to be HTML,
// such as the output of the markup cleaner. Unlike Parse it accepts
// markup without any start tag: loose text becomes a paragraph.
func ParseFragment(markup string) []model.Node {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil
	}
	reader := &Reader{doc: doc}
	reader.extractBody(doc)
	return reader.Nodes()
}

// HasElements reports whether markup contains at least one start tag.
func HasElements(markup string) bool {
	return hasElement([]byte(markup))
}

// Open opens an HTML file for reading.
func Open(filename string) (*Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return OpenReader(f)
}

// OpenReader parses HTML from an io.Reader. Input without a single start
// tag is rejected with ErrNoElements; the HTML parser itself accepts any
// byte sequence.
func OpenReader(r io.Reader) (*Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading HTML: %w", err)
	}
	if !hasElement(data) {
		return nil, ErrNoElements
	}

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	reader := &Reader{doc: doc}
	reader.extractBody(doc)
	return reader, nil
}

// hasElement reports whether data contains at least one start tag.
func hasElement(data []byte) bool {
	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			return true
		}
	}
}

// Nodes returns the nodes of the document in reading order.
func (r *Reader) Nodes() []model.Node {
	out := make([]model.Node, len(r.nodes))
	copy(out, r.nodes)
	return out
}

// Text returns the plain text of the document, one node per line. Table
// rows are tab-separated.
func (r *Reader) Text() string {
	var sb strings.Builder
	for i, n := range r.nodes {
		if i > 0 {
			sb.WriteString("\n")
		}
		if n.Kind == model.NodeTable {
			for j, row := range n.Rows {
				if j > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(strings.Join(row, "\t"))
			}
			continue
		}
		sb.WriteString(n.Text)
	}
	return sb.String()
}

// extractBody extracts content from the body element.
func (r *Reader) extractBody(n *html.Node) {
	body := findElement(n, "body")
	if body == nil {
		body = n
	}
	r.walkChildren(body, &parseContext{})
}

// parseContext tracks the current parsing state.
type parseContext struct {
	listLevel int
}

// walkChildren visits the children of a container element. Runs of inline
// children between blocks form an implicit paragraph.
func (r *Reader) walkChildren(n *html.Node, ctx *parseContext) {
	var inline []*html.Node
	flush := func() {
		if len(inline) > 0 {
			r.addParagraph(n, inline, "", false)
			inline = nil
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.ElementNode && shouldSkipElement(c.Data):
		case isBlockElement(c):
			flush()
			r.traverseNode(c, ctx)
		case c.Type == html.ElementNode || c.Type == html.TextNode:
			inline = append(inline, c)
		}
	}
	flush()
}

// traverseNode processes one block element.
func (r *Reader) traverseNode(n *html.Node, ctx *parseContext) {
	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		style := "Heading " + strconv.Itoa(level)
		if level == 1 && len(r.nodes) == 0 {
			style = StyleTitle
		}
		r.addParagraph(n, children(n), style, false)

	case "p", "pre":
		r.addParagraph(n, children(n), "", false)

	case "div", "blockquote":
		if isBlockContainer(n) {
			r.walkChildren(n, ctx)
			return
		}
		style := ""
		if n.Data == "blockquote" {
			style = StyleQuote
		}
		r.addParagraph(n, children(n), style, false)

	case "ul", "ol":
		ctx.listLevel++
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if isBlockElement(c) {
				r.traverseNode(c, ctx)
			}
		}
		ctx.listLevel--

	case "li":
		r.parseListItem(n, ctx)

	case "table":
		r.nodes = append(r.nodes, parseTable(n))

	case "hr", "br":

	default:
		// article, section, main, center and similar containers
		r.walkChildren(n, ctx)
	}
}

// parseListItem emits the item's own content as one list node, then the
// nodes of any nested lists.
func (r *Reader) parseListItem(li *html.Node, ctx *parseContext) {
	var own []*html.Node
	var nested []*html.Node
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol" || c.Data == "table") {
			nested = append(nested, c)
			continue
		}
		own = append(own, c)
	}

	r.addParagraph(li, own, "", true)

	for _, c := range nested {
		r.traverseNode(c, ctx)
	}
}

// addParagraph appends a paragraph node built from the content nodes of
// block. Nodes without visible text are skipped.
func (r *Reader) addParagraph(block *html.Node, content []*html.Node, style string, listItem bool) {
	text, formatting := readInline(block, content)
	if text == "" {
		return
	}
	formatting.Centered = alignment(block) == "center"

	r.nodes = append(r.nodes, model.Node{
		Kind:       model.NodeParagraph,
		Text:       text,
		StyleName:  style,
		Formatting: formatting,
		ListMarker: listItem,
	})
}

// children returns the child nodes of n.
func children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// shouldSkipElement returns true if the element should be skipped during content extraction.
func shouldSkipElement(tagName string) bool {
	switch tagName {
	case "script", "style", "noscript", "template", "svg", "math", "iframe", "object", "embed", "head", "title":
		return true
	}
	return false
}

// isBlockElement reports whether n is an element that starts a new block.
func isBlockElement(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "div", "p", "pre", "ul", "ol", "li", "table", "blockquote", "hr",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"article", "section", "main", "header", "footer", "nav", "aside", "center", "form":
		return true
	}
	return false
}

// isBlockContainer returns true if the element is a block container with block-level children.
func isBlockContainer(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isBlockElement(c) && c.Data != "hr" {
			return true
		}
	}
	return false
}

// findElement finds the first element with the given tag name.
func findElement(n *html.Node, tagName string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tagName {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findElement(c, tagName); result != nil {
			return result
		}
	}
	return nil
}

// getAttr returns the value of the named attribute.
func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// Package retag rewrites presentational HTML into semantic HTML.
//
// Exported documents express structure through presentation: a "heading"
// is a paragraph with a large font, emphasis is a span with a font-weight.
// The Retagger maps those presentational cues onto semantic tags (h1-h6,
// strong, em, u, th) and records every decision, with a confidence, in a
// MappingContext supplied by the caller.
//
// Re-tagging never fails: markup that cannot be parsed is returned
// unchanged.
package retag

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/tsawler/docstruct/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Band maps a font-size range [Min, Max) in points to a heading tag.
type Band struct {
	Min        float64
	Max        float64
	Tag        string
	Confidence float64
}

// Contains reports whether size falls in the band.
func (b Band) Contains(size float64) bool {
	return size >= b.Min && size < b.Max
}

// Config holds configuration for re-tagging.
type Config struct {
	// Bands are evaluated in order; the first band containing a block's
	// font size wins.
	Bands []Band

	// BodyRelative restricts size bands to blocks whose font size is
	// larger than the dominant body text size of the document.
	// Default: true
	BodyRelative bool

	// BoldMaxLen is the exclusive upper bound on the length of a bold line
	// treated as a heading when no band matches. Default: 50
	BoldMaxLen int

	// BoldShortLen is the length up to which a bold heading maps to h2
	// rather than h3. Default: 25
	BoldShortLen int

	// Confidence of the bold fallback for short (h2) and long (h3) lines.
	BoldShortConfidence float64
	BoldLongConfidence  float64

	// Confidence of inline rewrites.
	StrongConfidence    float64
	EmphasisConfidence  float64
	UnderlineConfidence float64

	// HeaderRowConfidence is the confidence of promoting a bold first
	// table row to a header row.
	HeaderRowConfidence float64
}

// DefaultBands returns the default font-size bands.
func DefaultBands() []Band {
	return []Band{
		{Min: 24, Max: 36, Tag: "h1", Confidence: 0.90},
		{Min: 20, Max: 24, Tag: "h2", Confidence: 0.85},
		{Min: 16, Max: 20, Tag: "h3", Confidence: 0.80},
		{Min: 14, Max: 16, Tag: "h4", Confidence: 0.75},
		{Min: 12, Max: 14, Tag: "h5", Confidence: 0.70},
		{Min: 10, Max: 12, Tag: "h6", Confidence: 0.65},
	}
}

// DefaultConfig returns sensible defaults for re-tagging.
func DefaultConfig() Config {
	return Config{
		Bands:               DefaultBands(),
		BodyRelative:        true,
		BoldMaxLen:          50,
		BoldShortLen:        25,
		BoldShortConfidence: 0.80,
		BoldLongConfidence:  0.75,
		StrongConfidence:    0.90,
		EmphasisConfidence:  0.85,
		UnderlineConfidence: 0.70,
		HeaderRowConfidence: 0.85,
	}
}

// Result is the output of a re-tagging pass.
type Result struct {
	HTML     string
	Mappings []model.StyleMapping
}

// Retagger rewrites presentational markup. A Retagger holds no per-run
// state and is safe for concurrent use.
type Retagger struct {
	config Config
}

// New creates a Retagger with default configuration.
func New() *Retagger {
	return &Retagger{config: DefaultConfig()}
}

// NewWithConfig creates a Retagger with custom configuration.
func NewWithConfig(config Config) *Retagger {
	return &Retagger{config: config}
}

// Retag rewrites markup using a default Retagger.
func Retag(markup string, mc *MappingContext) Result {
	return New().Retag(markup, mc)
}

// Retag rewrites markup and records its decisions in mc. A nil mc is
// replaced by a fresh context.
func (r *Retagger) Retag(markup string, mc *MappingContext) Result {
	if mc == nil {
		mc = NewMappingContext()
	}
	if strings.TrimSpace(markup) == "" {
		return Result{HTML: markup, Mappings: mc.Mappings()}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return Result{HTML: markup, Mappings: mc.Mappings()}
	}

	blocks := leafBlocks(doc)
	body := bodyFontSize(blocks)
	blocks.Each(func(_ int, s *goquery.Selection) {
		r.retagBlock(s.Get(0), body, mc)
	})

	doc.Find("table").Each(func(_ int, s *goquery.Selection) {
		r.retagTable(s, mc)
	})

	doc.Find("span, b, i").Each(func(_ int, s *goquery.Selection) {
		r.retagInline(s, mc)
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return Result{HTML: markup, Mappings: mc.Mappings()}
	}
	return Result{HTML: strings.TrimSpace(out), Mappings: mc.Mappings()}
}

// leafBlocks selects p and div elements that hold text directly, outside
// tables and lists.
func leafBlocks(doc *goquery.Document) *goquery.Selection {
	return doc.Find("p, div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		n := s.Get(0)
		return !hasBlockDescendant(n) && !insideAny(n, atom.Table, atom.Li, atom.Ul, atom.Ol)
	})
}

// bodyFontSize returns the font size carrying the most text among blocks.
// Blocks without a declared size count as size 0.
func bodyFontSize(blocks *goquery.Selection) float64 {
	weights := make(map[float64]int)
	blocks.Each(func(_ int, s *goquery.Selection) {
		weights[effectiveFontSize(s.Get(0))] += utf8.RuneCountInString(strings.TrimSpace(s.Text()))
	})
	var body float64
	best := -1
	for size, w := range weights {
		if w > best || (w == best && size < body) {
			body, best = size, w
		}
	}
	return body
}

// band returns the first band containing size.
func (r *Retagger) band(size float64) (Band, bool) {
	for _, b := range r.config.Bands {
		if b.Contains(size) {
			return b, true
		}
	}
	return Band{}, false
}

// retagBlock promotes a leaf block to a heading by font size, or failing
// that by boldness.
func (r *Retagger) retagBlock(n *html.Node, body float64, mc *MappingContext) {
	text := collapseSpace(nodeText(n))
	if text == "" {
		return
	}
	original := n.Data

	size := effectiveFontSize(n)
	if size > 0 && (!r.config.BodyRelative || size > body) {
		if b, ok := r.band(size); ok {
			rename(n, b.Tag)
			mc.Record(
				fmt.Sprintf("%s[font-size:%gpt]", original, size),
				b.Tag,
				b.Confidence,
				fmt.Sprintf("font size %gpt in band [%g,%g)", size, b.Min, b.Max),
			)
			return
		}
	}

	length := utf8.RuneCountInString(text)
	if length >= r.config.BoldMaxLen || strings.HasSuffix(text, ".") || !allBold(n) {
		return
	}
	tag, confidence := "h3", r.config.BoldLongConfidence
	if length <= r.config.BoldShortLen {
		tag, confidence = "h2", r.config.BoldShortConfidence
	}
	rename(n, tag)
	mc.Record(
		original+"[bold]",
		tag,
		confidence,
		fmt.Sprintf("bold line of %d characters without trailing period", length),
	)
}

// retagTable turns a bold first row into a header row.
func (r *Retagger) retagTable(table *goquery.Selection, mc *MappingContext) {
	if table.Find("th, thead").Length() > 0 {
		return
	}
	row := table.Find("tr").First()
	cells := row.ChildrenFiltered("td")
	if cells.Length() == 0 {
		return
	}

	nonEmpty := 0
	bold := true
	cells.Each(func(_ int, c *goquery.Selection) {
		if strings.TrimSpace(c.Text()) == "" {
			return
		}
		nonEmpty++
		if !allBold(c.Get(0)) {
			bold = false
		}
	})
	if nonEmpty == 0 || !bold {
		return
	}

	cells.Each(func(_ int, c *goquery.Selection) {
		rename(c.Get(0), "th")
	})
	table.PrependHtml("<thead></thead>")
	table.ChildrenFiltered("thead").First().AppendSelection(row)

	mc.Record("tr[bold]", "th", r.config.HeaderRowConfidence, "every non-empty cell of the first row is bold")
}

// retagInline rewrites b, i and styled spans to emphasis tags. Spans
// without any remaining styling are unwrapped.
func (r *Retagger) retagInline(s *goquery.Selection, mc *MappingContext) {
	n := s.Get(0)

	switch n.DataAtom {
	case atom.B:
		rename(n, "strong")
		mc.Record("b", "strong", r.config.StrongConfidence, "bold element")
		return
	case atom.I:
		rename(n, "em")
		mc.Record("i", "em", r.config.EmphasisConfidence, "italic element")
		return
	}

	st := parseStyle(getAttr(n, "style"))
	var tags []string
	if st.bold {
		tags = append(tags, "strong")
		mc.Record("span[font-weight:"+st.raw["font-weight"]+"]", "strong", r.config.StrongConfidence, "bold span")
	}
	if st.italic {
		tags = append(tags, "em")
		mc.Record("span[font-style:"+st.raw["font-style"]+"]", "em", r.config.EmphasisConfidence, "italic span")
	}
	if st.underline {
		tags = append(tags, "u")
		mc.Record("span[text-decoration:underline]", "u", r.config.UnderlineConfidence,
			"underline span; underline is not reliably semantic")
	}

	rest := formatStyle(st, "font-weight", "font-style", "text-decoration", "text-decoration-line")
	if len(tags) == 0 {
		if rest != "" {
			return
		}
		if s.Contents().Length() == 0 {
			s.Remove()
			return
		}
		s.Contents().Unwrap()
		return
	}

	rename(n, tags[0])
	setAttr(n, "style", rest)
	if len(tags) > 1 && s.Contents().Length() > 0 {
		var wrapper strings.Builder
		for _, t := range tags[1:] {
			wrapper.WriteString("<" + t + ">")
		}
		for i := len(tags) - 1; i >= 1; i-- {
			wrapper.WriteString("</" + tags[i] + ">")
		}
		s.WrapInnerHtml(wrapper.String())
	}
}

// nodeText returns the text content of n.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

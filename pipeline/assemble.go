package pipeline

import (
	"fmt"
	"math"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"golang.org/x/net/html"

	"github.com/tsawler/docstruct/model"
)

// ServicePenalty is subtracted from the document confidence when the
// placeholder service failed.
const ServicePenalty = 10

func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
}

// buildTables turns table elements into tables with ids table-1, table-2,
// ... in reading order. headerRows[i] says whether the i-th table carries a
// header row.
func buildTables(elements []model.Element, headerRows []bool) []model.Table {
	tables := make([]model.Table, 0, len(headerRows))
	for _, e := range elements {
		if e.Kind != model.KindTable {
			continue
		}
		n := len(tables)
		header := n < len(headerRows) && headerRows[n]
		tables = append(tables, *model.NewTable(fmt.Sprintf("table-%d", n+1), e.Rows, header))
	}
	return tables
}

// buildSections creates one flat section per heading element. The body of
// a section is the Markdown rendering of the elements up to the next
// heading. tables are the output of buildTables for the same elements.
func buildSections(elements []model.Element, tables []model.Table, md *converter.Converter) []model.Section {
	byElement := tablesByElement(elements, tables)
	sections := make([]model.Section, 0)
	for i := 0; i < len(elements); i++ {
		e := elements[i]
		if !e.Kind.IsHeading() {
			continue
		}
		end := i + 1
		for end < len(elements) && !elements[end].Kind.IsHeading() {
			end++
		}
		sections = append(sections, model.Section{
			ID:    fmt.Sprintf("section-%d", len(sections)+1),
			Title: e.Text,
			Level: e.Kind.Level(),
			Body:  markdownBody(elements[i+1:end], byElement[i+1:end], md),
		})
	}
	return sections
}

// tablesByElement aligns tables with the table elements they were built
// from. Entries for other elements are nil.
func tablesByElement(elements []model.Element, tables []model.Table) []*model.Table {
	out := make([]*model.Table, len(elements))
	n := 0
	for i, e := range elements {
		if e.Kind != model.KindTable {
			continue
		}
		if n < len(tables) {
			out[i] = &tables[n]
		} else {
			out[i] = model.NewTable("", e.Rows, false)
		}
		n++
	}
	return out
}

// markdownBody renders elements as Markdown. Text runs go through the HTML
// converter; tables are written directly as GFM tables so a header row
// stays a header.
func markdownBody(elements []model.Element, tables []*model.Table, md *converter.Converter) string {
	var parts []string
	start := 0
	flush := func(end int) {
		if end > start {
			if s := convertElements(elements[start:end], md); s != "" {
				parts = append(parts, s)
			}
		}
	}
	for i, e := range elements {
		if e.Kind != model.KindTable || tables[i] == nil {
			continue
		}
		flush(i)
		if s := strings.TrimSpace(tables[i].ToMarkdown()); s != "" {
			parts = append(parts, s)
		}
		start = i + 1
	}
	flush(len(elements))
	return strings.Join(parts, "\n\n")
}

func convertElements(elements []model.Element, md *converter.Converter) string {
	out, err := md.ConvertString(renderElements(elements))
	if err != nil {
		return strings.TrimSpace(model.ElementsText(elements))
	}
	return strings.TrimSpace(out)
}

// renderElements renders text elements as semantic HTML. Consecutive list
// elements share one list.
func renderElements(elements []model.Element) string {
	var sb strings.Builder
	inList := false
	for _, e := range elements {
		if e.Kind == model.KindList && !inList {
			sb.WriteString("<ul>")
			inList = true
		}
		if e.Kind != model.KindList && inList {
			sb.WriteString("</ul>")
			inList = false
		}
		tag := e.Kind.HTMLTag()
		fmt.Fprintf(&sb, "<%s>%s</%s>", tag, inlineText(e.Text), tag)
	}
	if inList {
		sb.WriteString("</ul>")
	}
	return sb.String()
}

func inlineText(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br>")
}

// findSignature returns the first signature element together with the
// lines that follow it up to the next heading or table.
func findSignature(elements []model.Element) *model.Signature {
	for i, e := range elements {
		if e.Kind != model.KindSignature {
			continue
		}
		lines := splitLines(e.Text)
		for _, next := range elements[i+1:] {
			if next.Kind.IsHeading() || next.Kind == model.KindTable {
				break
			}
			lines = append(lines, splitLines(next.Text)...)
		}
		return &model.Signature{
			Text:  strings.Join(lines, "\n"),
			Lines: lines,
			Index: i,
		}
	}
	return nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func countElements(elements []model.Element, sections []model.Section, tables []model.Table) model.ElementCounts {
	counts := model.ElementCounts{
		Sections: len(sections),
		Tables:   len(tables),
	}
	for _, e := range elements {
		switch e.Kind {
		case model.KindSignature:
			counts.Signatures++
		case model.KindParagraph:
			counts.Paragraphs++
		}
	}
	return counts
}

// documentConfidence is the mean of the classifier and style-mapping
// confidences on a 0-100 scale, less ServicePenalty when the service failed.
func documentConfidence(elements []model.Element, mappings []model.StyleMapping, serviceFailed bool) int {
	var sum float64
	n := 0
	for _, e := range elements {
		sum += e.Confidence
		n++
	}
	for _, m := range mappings {
		sum += m.Confidence
		n++
	}
	if n == 0 {
		return 0
	}
	score := int(math.Round(100 * sum / float64(n)))
	if serviceFailed {
		score -= ServicePenalty
	}
	return model.ClampConfidence(score)
}

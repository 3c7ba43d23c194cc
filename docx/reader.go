// Package docx reads WordprocessingML (Office Open XML) documents.
//
// The reader decodes the body of word/document.xml in document order,
// resolves paragraph and run formatting through the style hierarchy in
// styles.xml, and produces model.Node values for classification. It also
// renders the body to presentational HTML and builds a style manifest that
// maps Word styles onto semantic HTML elements.
package docx

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/tsawler/docstruct/model"
)

// Block is one paragraph or table of the body, in document order.
type Block struct {
	Node model.Node

	// StyleID is the paragraph or table style id ("" when none).
	StyleID string

	// Runs holds the resolved runs of a paragraph.
	Runs []ResolvedRun

	// HeadingLevel is the heading level implied by the paragraph style,
	// or 0 when the style is not a heading style.
	HeadingLevel int

	// ListType and ListLevel describe list paragraphs.
	ListType  ListType
	ListLevel int
}

// Document is a decoded WordprocessingML body.
type Document struct {
	Blocks []Block

	// Warnings collects non-fatal issues, such as an unreadable styles part.
	Warnings []string

	styles    *StyleResolver
	numbering *NumberingResolver
}

// Parse decodes raw and returns its nodes in document order.
func Parse(raw model.RawDocument) ([]model.Node, error) {
	doc, err := Read(raw)
	if err != nil {
		return nil, err
	}
	return doc.Nodes(), nil
}

// Read decodes the markup of raw together with its optional styles and
// numbering parts. Invalid XML or a missing body is an error; unreadable
// companion parts only produce warnings.
func Read(raw model.RawDocument) (*Document, error) {
	body, err := decodeBody(strings.NewReader(raw.Markup))
	if err != nil {
		return nil, fmt.Errorf("decoding document body: %w", err)
	}

	doc := &Document{}

	var styles *stylesXML
	if strings.TrimSpace(raw.Styles) != "" {
		styles = &stylesXML{}
		if err := xml.Unmarshal([]byte(raw.Styles), styles); err != nil {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("docx: styles part ignored: %v", err))
			styles = nil
		}
	}
	doc.styles = NewStyleResolver(styles)

	var numbering *numberingXML
	if strings.TrimSpace(raw.Numbering) != "" {
		numbering = &numberingXML{}
		if err := xml.Unmarshal([]byte(raw.Numbering), numbering); err != nil {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("docx: numbering part ignored: %v", err))
			numbering = nil
		}
	}
	doc.numbering = NewNumberingResolver(numbering)

	tables := NewTableParser(doc.styles)
	for _, elem := range body.Elements {
		switch {
		case elem.Paragraph != nil:
			block := doc.processParagraph(elem.Paragraph)
			if block.Node.Text == "" {
				continue
			}
			doc.Blocks = append(doc.Blocks, block)
		case elem.Table != nil:
			doc.Blocks = append(doc.Blocks, tables.ParseTable(*elem.Table))
		}
	}

	return doc, nil
}

// Nodes returns the classifier input for every block.
func (d *Document) Nodes() []model.Node {
	nodes := make([]model.Node, len(d.Blocks))
	for i, b := range d.Blocks {
		nodes[i] = b.Node
	}
	return nodes
}

// Text returns the plain text of the document, one block per line.
func (d *Document) Text() string {
	var sb strings.Builder
	for i, b := range d.Blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		if b.Node.Kind == model.NodeTable {
			for j, row := range b.Node.Rows {
				if j > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(strings.Join(row, "\t"))
			}
			continue
		}
		sb.WriteString(b.Node.Text)
	}
	return sb.String()
}

// processParagraph resolves the formatting of a single paragraph.
func (d *Document) processParagraph(p *paragraphXML) Block {
	styleID := p.Properties.Style.Val
	style := d.styles.Resolve(styleID)

	block := Block{
		StyleID:      styleID,
		HeadingLevel: style.HeadingLevel,
	}

	var sb strings.Builder
	for _, run := range p.Runs {
		rr := d.styles.ResolveRun(styleID, run)
		if rr.Text == "" {
			continue
		}
		block.Runs = append(block.Runs, rr)
		sb.WriteString(rr.Text)
	}

	styleName := style.Name
	if styleName == "" {
		styleName = styleID
	}

	numID := p.Properties.NumPr.NumID.Val
	if numID == "" && style.IsList {
		numID = style.NumID
	}
	isList := IsListParagraph(numID) || strings.HasPrefix(strings.ToLower(styleName), "list ")
	if isList {
		block.ListLevel, _ = strconv.Atoi(p.Properties.NumPr.ILvl.Val)
		block.ListType, _ = d.numbering.ResolveLevel(numID, block.ListLevel)
		if !IsListParagraph(numID) && strings.Contains(strings.ToLower(styleName), "number") {
			block.ListType = ListTypeOrdered
		}
	}

	alignment := style.Alignment
	if p.Properties.Justification.Val != "" {
		alignment = p.Properties.Justification.Val
	}

	formatting := majorityFormatting(block.Runs, style)
	formatting.Centered = alignment == "center"

	block.Node = model.Node{
		Kind:       model.NodeParagraph,
		Text:       strings.TrimSpace(sb.String()),
		StyleName:  styleName,
		Formatting: formatting,
		ListMarker: isList,
	}
	return block
}

// majorityFormatting derives paragraph formatting from its runs: a
// property holds when it covers more than half of the visible characters.
// The font size is the size covering the most characters. A paragraph
// without visible text takes its style's formatting.
func majorityFormatting(runs []ResolvedRun, style *ResolvedStyle) model.Formatting {
	var total, bold, italic, underline int
	sizes := make(map[float64]int)

	for _, r := range runs {
		n := visibleLen(r.Text)
		if n == 0 {
			continue
		}
		total += n
		if r.Bold {
			bold += n
		}
		if r.Italic {
			italic += n
		}
		if r.Underline {
			underline += n
		}
		if r.FontSize > 0 {
			sizes[r.FontSize] += n
		}
	}

	if total == 0 {
		f := model.Formatting{Bold: style.Bold, Italic: style.Italic, Underline: style.Underline}
		return f.WithFontSize(style.FontSize)
	}

	f := model.Formatting{
		Bold:      bold*2 > total,
		Italic:    italic*2 > total,
		Underline: underline*2 > total,
	}
	return f.WithFontSize(dominantSize(sizes))
}

// dominantSize returns the size with the largest weight; ties go to the
// larger size.
func dominantSize(sizes map[float64]int) float64 {
	var size float64
	best := 0
	for s, w := range sizes {
		if w > best || (w == best && s > size) {
			size, best = s, w
		}
	}
	return size
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

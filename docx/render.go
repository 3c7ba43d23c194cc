package docx

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/tsawler/docstruct/model"
)

// RenderHTML renders the document as presentational HTML: headings from
// heading styles, paragraphs with inline font size, weight, style and
// alignment, list runs grouped into ul/ol, and tables whose header row is
// bold. The output is input for semantic re-tagging.
func (d *Document) RenderHTML() string {
	var sb strings.Builder
	var openList string

	closeList := func() {
		if openList != "" {
			sb.WriteString("</li></" + openList + ">")
			openList = ""
		}
	}

	for _, b := range d.Blocks {
		if b.Node.Kind == model.NodeTable {
			closeList()
			renderTable(&sb, b.Node)
			continue
		}

		if b.Node.ListMarker {
			tag := b.ListType.String()
			if openList != tag {
				closeList()
				sb.WriteString("<" + tag + ">")
				openList = tag
			} else {
				sb.WriteString("</li>")
			}
			sb.WriteString("<li>")
			renderRuns(&sb, b.Runs)
			continue
		}
		closeList()

		tag := blockTag(b)
		sb.WriteString("<" + tag)
		if b.Node.Formatting.Centered {
			sb.WriteString(` style="text-align:center"`)
		}
		sb.WriteString(">")
		if strings.HasPrefix(tag, "h") {
			sb.WriteString(escapeText(b.Node.Text))
		} else {
			renderRuns(&sb, b.Runs)
		}
		sb.WriteString("</" + tag + ">")
	}
	closeList()

	return sb.String()
}

// blockTag picks the element for a paragraph block.
func blockTag(b Block) string {
	if b.HeadingLevel > 0 {
		return "h" + strconv.Itoa(min(b.HeadingLevel, 6))
	}
	switch tag := ElementFor(b.Node.StyleName, "paragraph"); tag {
	case "h1", "h2", "h3", "blockquote":
		return tag
	}
	return "p"
}

// renderRuns writes runs as text and styled spans, merging neighbours
// that share formatting.
func renderRuns(sb *strings.Builder, runs []ResolvedRun) {
	var merged []ResolvedRun
	for _, r := range runs {
		if n := len(merged); n > 0 && sameFormatting(merged[n-1], r) {
			merged[n-1].Text += r.Text
			continue
		}
		merged = append(merged, r)
	}

	for _, r := range merged {
		style := runStyle(r)
		if style == "" {
			sb.WriteString(escapeText(r.Text))
			continue
		}
		sb.WriteString(`<span style="` + style + `">`)
		sb.WriteString(escapeText(r.Text))
		sb.WriteString("</span>")
	}
}

func sameFormatting(a, b ResolvedRun) bool {
	return a.Bold == b.Bold && a.Italic == b.Italic && a.Underline == b.Underline && a.FontSize == b.FontSize
}

// runStyle returns the inline CSS for a run.
func runStyle(r ResolvedRun) string {
	var parts []string
	if r.FontSize > 0 {
		parts = append(parts, "font-size:"+strconv.FormatFloat(r.FontSize, 'f', -1, 64)+"pt")
	}
	if r.Bold {
		parts = append(parts, "font-weight:700")
	}
	if r.Italic {
		parts = append(parts, "font-style:italic")
	}
	if r.Underline {
		parts = append(parts, "text-decoration:underline")
	}
	return strings.Join(parts, ";")
}

// renderTable writes a table node. Header cells are wrapped in <strong> so
// that the re-tagger promotes the first row.
func renderTable(sb *strings.Builder, node model.Node) {
	sb.WriteString("<table>")
	for i, row := range node.Rows {
		sb.WriteString("<tr>")
		for _, cell := range row {
			sb.WriteString("<td>")
			if i == 0 && node.HeaderRow && cell != "" {
				fmt.Fprintf(sb, "<strong>%s</strong>", escapeText(cell))
			} else {
				sb.WriteString(escapeText(cell))
			}
			sb.WriteString("</td>")
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</table>")
}

// escapeText escapes text for HTML and turns line breaks into <br>.
func escapeText(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br>")
}

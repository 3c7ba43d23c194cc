package htmldoc

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/tsawler/docstruct/model"
)

// Span limits from the HTML table model.
const (
	maxColSpan = 1000
	maxRowSpan = 65534
)

// parsedCell is one grid cell of a row.
type parsedCell struct {
	text   string
	bold   bool
	header bool
}

// parseTable extracts a table node. Cells spanning several columns or rows
// occupy every grid slot they cover, with the text in the first; rows are
// padded to the widest row. The first row is a header row when it comes
// from <thead> or when every non-empty cell is a <th> or fully bold.
func parseTable(tableNode *html.Node) model.Node {
	var trs []*html.Node
	headFirst := false

	for c := tableNode.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "thead":
			rows := tableRows(c)
			if len(trs) == 0 && len(rows) > 0 {
				headFirst = true
			}
			trs = append(trs, rows...)
		case "tbody", "tfoot":
			trs = append(trs, tableRows(c)...)
		case "tr":
			trs = append(trs, c)
		}
	}

	grid := buildGrid(trs)

	width := 0
	for _, row := range grid {
		width = max(width, len(row))
	}

	node := model.Node{Kind: model.NodeTable}
	for _, row := range grid {
		texts := make([]string, width)
		for i, c := range row {
			texts[i] = c.text
		}
		node.Rows = append(node.Rows, texts)
	}
	if len(grid) > 0 {
		node.HeaderRow = headFirst || headerCells(grid[0])
	}
	return node
}

// tableRows returns the tr children of a table section.
func tableRows(section *html.Node) []*html.Node {
	var rows []*html.Node
	for c := section.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "tr" {
			rows = append(rows, c)
		}
	}
	return rows
}

// buildGrid lays the cells of trs out on grid columns, honouring colspan
// and rowspan.
func buildGrid(trs []*html.Node) [][]parsedCell {
	var grid [][]parsedCell
	covered := make(map[int]int) // column -> rows still covered by a rowspan

	for _, tr := range trs {
		var row []parsedCell
		col := 0
		skipCovered := func() {
			for covered[col] > 0 {
				covered[col]--
				row = append(row, parsedCell{})
				col++
			}
		}

		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
				continue
			}
			skipCovered()

			cell := parseCell(c)
			colSpan := spanAttr(c, "colspan", maxColSpan)
			rowSpan := spanAttr(c, "rowspan", maxRowSpan)
			for i := 0; i < colSpan; i++ {
				if i == 0 {
					row = append(row, cell)
				} else {
					row = append(row, parsedCell{header: cell.header})
				}
				if rowSpan > 1 {
					covered[col] = rowSpan - 1
				}
				col++
			}
		}
		skipCovered()

		grid = append(grid, row)
	}
	return grid
}

// parseCell returns the text of a cell and whether all of it is bold.
func parseCell(td *html.Node) parsedCell {
	base := applyElement(inlineState{}, td)

	var runs []textRun
	var sb strings.Builder
	for c := td.FirstChild; c != nil; c = c.NextSibling {
		collectRuns(c, base, &runs, &sb)
	}

	visible, bold := 0, 0
	for _, r := range runs {
		n := visibleLen(r.text)
		visible += n
		if r.state.bold {
			bold += n
		}
	}

	return parsedCell{
		text:   strings.Join(strings.Fields(sb.String()), " "),
		bold:   visible > 0 && bold == visible,
		header: td.Data == "th",
	}
}

// headerCells reports whether every non-empty cell of a row is a header
// or bold cell, and at least one cell is non-empty.
func headerCells(cells []parsedCell) bool {
	nonEmpty := 0
	for _, c := range cells {
		if c.text == "" {
			continue
		}
		nonEmpty++
		if !c.header && !c.bold {
			return false
		}
	}
	return nonEmpty > 0
}

// spanAttr reads a colspan or rowspan attribute, clamped to [1, limit].
func spanAttr(n *html.Node, key string, limit int) int {
	v, err := strconv.Atoi(strings.TrimSpace(getAttr(n, key)))
	if err != nil || v < 1 {
		return 1
	}
	return min(v, limit)
}

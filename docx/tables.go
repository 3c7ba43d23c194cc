package docx

import (
	"strconv"
	"strings"

	"github.com/tsawler/docstruct/model"
)

// TableParser handles parsing of DOCX tables.
type TableParser struct {
	styleResolver *StyleResolver
}

// NewTableParser creates a new table parser.
func NewTableParser(resolver *StyleResolver) *TableParser {
	return &TableParser{
		styleResolver: resolver,
	}
}

// parsedCell is one grid cell of a row.
type parsedCell struct {
	text string
	bold bool
}

// ParseTable parses a table XML element into a table block. Horizontally
// merged cells (gridSpan) occupy one column per spanned grid column, with
// the text in the first; continuations of vertical merges are empty.
// Every row is padded to the widest row.
func (tp *TableParser) ParseTable(tbl tableXML) Block {
	var rows [][]parsedCell
	width := 0
	for _, row := range tbl.Rows {
		cells := tp.parseRow(row)
		if len(cells) > width {
			width = len(cells)
		}
		rows = append(rows, cells)
	}

	node := model.Node{Kind: model.NodeTable}
	for _, cells := range rows {
		texts := make([]string, width)
		for i, c := range cells {
			texts[i] = c.text
		}
		node.Rows = append(node.Rows, texts)
	}

	if len(rows) > 0 {
		node.HeaderRow = tbl.Rows[0].Properties.Header.On() || allBoldRow(rows[0])
	}

	return Block{
		Node:    node,
		StyleID: tbl.Properties.Style.Val,
	}
}

// parseRow expands the cells of a row onto grid columns.
func (tp *TableParser) parseRow(row tableRowXML) []parsedCell {
	var cells []parsedCell
	for _, cell := range row.Cells {
		span := 1
		if n, err := strconv.Atoi(cell.Properties.GridSpan.Val); err == nil && n > 1 {
			span = n
		}

		parsed := parsedCell{}
		if !cell.Properties.VMerge.continues() {
			parsed = tp.parseCell(cell)
		}
		cells = append(cells, parsed)
		for i := 1; i < span; i++ {
			cells = append(cells, parsedCell{})
		}
	}
	return cells
}

// parseCell returns the text of a cell and whether all of it is bold.
// Nested tables contribute their text after the cell's own paragraphs.
func (tp *TableParser) parseCell(cell tableCellXML) parsedCell {
	var parts []string
	visible, bold := 0, 0

	for _, p := range cell.Paragraphs {
		var sb strings.Builder
		for _, run := range p.Runs {
			rr := tp.styleResolver.ResolveRun(p.Properties.Style.Val, run)
			sb.WriteString(rr.Text)
			n := visibleLen(rr.Text)
			visible += n
			if rr.Bold {
				bold += n
			}
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			parts = append(parts, text)
		}
	}

	for _, nested := range cell.Tables {
		for _, row := range tp.ParseTable(nested).Node.Rows {
			for _, text := range row {
				if text != "" {
					parts = append(parts, text)
				}
			}
		}
	}

	return parsedCell{
		text: strings.Join(strings.Fields(strings.Join(parts, " ")), " "),
		bold: visible > 0 && bold == visible,
	}
}

// allBoldRow reports whether every non-empty cell of a row is bold, and
// at least one cell is non-empty.
func allBoldRow(cells []parsedCell) bool {
	nonEmpty := 0
	for _, c := range cells {
		if c.text == "" {
			continue
		}
		nonEmpty++
		if !c.bold {
			return false
		}
	}
	return nonEmpty > 0
}

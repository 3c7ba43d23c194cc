package docx

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tsawler/docstruct/model"
)

func cell(props, text string) string {
	return `<w:tc>` + props + `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:tc>`
}

func boldCell(text string) string {
	return `<w:tc><w:p><w:r><w:rPr><w:b/></w:rPr><w:t>` + text + `</w:t></w:r></w:p></w:tc>`
}

func parseSingleTable(t *testing.T, tbl string, styles string) model.Node {
	t.Helper()
	nodes, err := Parse(rawDoc(tbl, styles, ""))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Kind != model.NodeTable {
		t.Fatalf("expected a single table node, got %+v", nodes)
	}
	return nodes[0]
}

func TestTableParsing_Simple(t *testing.T) {
	tbl := `<w:tbl>
<w:tr>` + cell("", "Nom") + cell("", "Import") + `</w:tr>
<w:tr>` + cell("", "Joan") + cell("", "150€") + `</w:tr>
</w:tbl>`

	node := parseSingleTable(t, tbl, "")

	want := [][]string{{"Nom", "Import"}, {"Joan", "150€"}}
	if diff := cmp.Diff(want, node.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if node.HeaderRow {
		t.Error("plain first row must not be a header row")
	}
}

func TestTableParsing_HeaderRow(t *testing.T) {
	tests := []struct {
		name   string
		tbl    string
		styles string
		want   bool
	}{
		{
			name: "bold runs",
			tbl:  `<w:tbl><w:tr>` + boldCell("Nom") + boldCell("Import") + cell("", "") + `</w:tr><w:tr>` + cell("", "a") + cell("", "b") + cell("", "c") + `</w:tr></w:tbl>`,
			want: true,
		},
		{
			name: "one cell not bold",
			tbl:  `<w:tbl><w:tr>` + boldCell("Nom") + cell("", "Import") + `</w:tr></w:tbl>`,
			want: false,
		},
		{
			name: "tblHeader",
			tbl:  `<w:tbl><w:tr><w:trPr><w:tblHeader/></w:trPr>` + cell("", "Nom") + `</w:tr></w:tbl>`,
			want: true,
		},
		{
			name:   "bold paragraph style",
			tbl:    `<w:tbl><w:tr><w:tc><w:p><w:pPr><w:pStyle w:val="Cap"/></w:pPr><w:r><w:t>Nom</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`,
			styles: `<w:style w:type="paragraph" w:styleId="Cap"><w:name w:val="Cap"/><w:rPr><w:b/></w:rPr></w:style>`,
			want:   true,
		},
		{
			name: "all empty",
			tbl:  `<w:tbl><w:tr>` + cell("", "") + `</w:tr><w:tr>` + cell("", "x") + `</w:tr></w:tbl>`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseSingleTable(t, tt.tbl, tt.styles)
			if node.HeaderRow != tt.want {
				t.Errorf("HeaderRow = %v, want %v", node.HeaderRow, tt.want)
			}
		})
	}
}

func TestTableParsing_Merges(t *testing.T) {
	tbl := `<w:tbl>
<w:tr>` + cell(`<w:tcPr><w:gridSpan w:val="2"/></w:tcPr>`, "Capçalera") + cell(`<w:tcPr><w:vMerge w:val="restart"/></w:tcPr>`, "Vertical") + `</w:tr>
<w:tr>` + cell("", "a") + cell("", "b") + cell(`<w:tcPr><w:vMerge/></w:tcPr>`, "ignored") + `</w:tr>
<w:tr>` + cell("", "short") + `</w:tr>
</w:tbl>`

	node := parseSingleTable(t, tbl, "")

	want := [][]string{
		{"Capçalera", "", "Vertical"},
		{"a", "b", ""},
		{"short", "", ""},
	}
	if diff := cmp.Diff(want, node.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestTableParsing_CellText(t *testing.T) {
	tbl := `<w:tbl><w:tr><w:tc>
<w:p><w:r><w:t>Línia</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">  dos  </w:t></w:r></w:p>
<w:tbl><w:tr>` + cell("", "niu") + `</w:tr></w:tbl>
</w:tc></w:tr></w:tbl>`

	node := parseSingleTable(t, tbl, "")
	if got := node.Rows[0][0]; got != "Línia dos niu" {
		t.Errorf("cell text = %q", got)
	}
}

func TestTableParsing_EmptyTable(t *testing.T) {
	node := parseSingleTable(t, `<w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/></w:tblPr></w:tbl>`, "")
	if len(node.Rows) != 0 {
		t.Errorf("Rows = %v, want none", node.Rows)
	}
	if node.HeaderRow {
		t.Error("empty table cannot have a header row")
	}
}

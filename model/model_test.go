package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ============================================================================
// Table Tests
// ============================================================================

func TestNewTable_WithHeaderRow(t *testing.T) {
	rows := [][]string{
		{"Name", "Amount", "Date"},
		{"Joan", "150€"},
		{"Maria", "200€", "01/02/2025", "extra"},
	}
	table := NewTable("table-1", rows, true)

	if diff := cmp.Diff([]string{"Name", "Amount", "Date"}, table.Headers); diff != "" {
		t.Errorf("Headers mismatch (-want +got):\n%s", diff)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Rows))
	}
	for i, row := range table.Rows {
		if len(row) != len(table.Headers) {
			t.Errorf("row %d has %d cells, want %d", i, len(row), len(table.Headers))
		}
	}
	if !table.Consistent() {
		t.Error("Consistent() = false, want true")
	}
	if got := table.Rows[0][2]; got != "" {
		t.Errorf("padded cell = %q, want empty", got)
	}
}

func TestNewTable_WithoutHeaderRow(t *testing.T) {
	rows := [][]string{
		{"a", "b"},
		{"c"},
	}
	table := NewTable("table-1", rows, false)

	if len(table.Headers) != 0 {
		t.Errorf("Headers = %v, want empty", table.Headers)
	}
	if len(table.Rows) != 2 {
		t.Errorf("got %d rows, want 2", len(table.Rows))
	}
	if table.ColCount() != 2 {
		t.Errorf("ColCount() = %d, want 2", table.ColCount())
	}
	if len(table.Rows[1]) != 1 {
		t.Errorf("rows without headers must not be padded, got %v", table.Rows[1])
	}
}

func TestNewTable_DoesNotAliasInput(t *testing.T) {
	rows := [][]string{{"h1", "h2"}, {"x", "y"}}
	table := NewTable("t", rows, true)
	rows[1][0] = "changed"
	if table.Rows[0][0] != "x" {
		t.Errorf("table row aliased input slice: %v", table.Rows[0])
	}
}

func TestTableToMarkdown(t *testing.T) {
	table := NewTable("t", [][]string{{"Name", "Value"}, {"a|b", "1"}}, true)
	md := table.ToMarkdown()

	if !strings.Contains(md, "| Name | Value |") {
		t.Errorf("markdown missing header row:\n%s", md)
	}
	if !strings.Contains(md, "|---|---|") {
		t.Errorf("markdown missing separator:\n%s", md)
	}
	if !strings.Contains(md, `a\|b`) {
		t.Errorf("markdown did not escape pipe:\n%s", md)
	}
}

func TestTableToCSV(t *testing.T) {
	tests := []struct {
		name  string
		table *Table
		want  string
	}{
		{
			"quoted cell",
			NewTable("t", [][]string{{"Name", "Note"}, {"Joan", `said "hi", left`}}, true),
			"Name,Note\nJoan,\"said \"\"hi\"\", left\"\n",
		},
		{
			"no headers",
			NewTable("t", [][]string{{"a", "b"}, {"c"}}, false),
			"a,b\nc\n",
		},
		{
			"multi-line cell",
			NewTable("t", [][]string{{"Adreça"}, {"Carrer Major 1\nGirona"}}, true),
			"Adreça\n\"Carrer Major 1\nGirona\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.table.ToCSV(); got != tt.want {
				t.Errorf("ToCSV() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ============================================================================
// Element Tests
// ============================================================================

func TestElementKindLevel(t *testing.T) {
	tests := []struct {
		kind  ElementKind
		level int
		tag   string
	}{
		{KindTitle, 1, "h1"},
		{KindHeading1, 1, "h1"},
		{KindHeading2, 2, "h2"},
		{KindHeading3, 3, "h3"},
		{KindParagraph, 0, "p"},
		{KindList, 0, "li"},
		{KindSignature, 0, "p"},
	}

	for _, tt := range tests {
		if got := tt.kind.Level(); got != tt.level {
			t.Errorf("%s.Level() = %d, want %d", tt.kind, got, tt.level)
		}
		if got := tt.kind.HTMLTag(); got != tt.tag {
			t.Errorf("%s.HTMLTag() = %q, want %q", tt.kind, got, tt.tag)
		}
		if got := tt.kind.IsHeading(); got != (tt.level > 0) {
			t.Errorf("%s.IsHeading() = %v", tt.kind, got)
		}
	}
}

func TestFormattingFontSize(t *testing.T) {
	var f Formatting
	if f.FontSize() != 0 {
		t.Errorf("zero Formatting FontSize() = %v, want 0", f.FontSize())
	}
	f = f.WithFontSize(14)
	if f.FontSize() != 14 {
		t.Errorf("FontSize() = %v, want 14", f.FontSize())
	}
	f = f.WithFontSize(0)
	if f.FontSizePt != nil {
		t.Error("WithFontSize(0) should clear the size")
	}
}

func TestElementsJSONRoundTripPreservesOrder(t *testing.T) {
	style := "Heading 1"
	level := 1
	doc := DocumentModel{
		Elements: []Element{
			{Kind: KindTitle, Text: "CONTRACTE", Level: &level},
			{Kind: KindHeading1, Text: "1. Objecte", StyleName: &style, Level: &level},
			{Kind: KindParagraph, Text: "El present contracte..."},
			{Kind: KindTable, Rows: [][]string{{"a", "b"}}},
			{Kind: KindSignature, Text: "Signat per"},
		},
		Sections:     []Section{},
		Tables:       []Table{},
		Placeholders: []PlaceholderCandidate{},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	var back DocumentModel
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if diff := cmp.Diff(doc.Elements, back.Elements); diff != "" {
		t.Errorf("elements changed across round trip (-want +got):\n%s", diff)
	}
}

func TestDocumentModelHelpers(t *testing.T) {
	doc := &DocumentModel{
		Elements: []Element{
			{Kind: KindTitle, Text: "Title"},
			{Kind: KindParagraph, Text: "one"},
			{Kind: KindTable, Rows: [][]string{{"a", "b"}, {"c", "d"}}},
			{Kind: KindParagraph, Text: "two"},
		},
	}

	if doc.Title() != "Title" {
		t.Errorf("Title() = %q", doc.Title())
	}
	if n := len(doc.ElementsOfKind(KindParagraph)); n != 2 {
		t.Errorf("ElementsOfKind(paragraph) = %d, want 2", n)
	}
	want := "Title\none\na\tb\nc\td\ntwo\n"
	if got := doc.PlainText(); got != want {
		t.Errorf("PlainText() = %q, want %q", got, want)
	}
}

// ============================================================================
// Placeholder Tests
// ============================================================================

func TestClampConfidence(t *testing.T) {
	tests := []struct{ in, want int }{
		{-5, 0}, {0, 0}, {55, 55}, {100, 100}, {140, 100},
	}
	for _, tt := range tests {
		if got := ClampConfidence(tt.in); got != tt.want {
			t.Errorf("ClampConfidence(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestValidVariable(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"client_name", true},
		{"date_1", true},
		{"", false},
		{"Client", false},
		{"client-name", false},
		{"nom del client", false},
	}
	for _, tt := range tests {
		if got := ValidVariable(tt.name); got != tt.want {
			t.Errorf("ValidVariable(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParsePlaceholderType(t *testing.T) {
	tests := []struct {
		in   string
		want PlaceholderType
		ok   bool
	}{
		{"date", TypeDate, true},
		{" Currency ", TypeCurrency, true},
		{"percentage", TypePercent, true},
		{"e-mail", TypeEmail, true},
		{"address", TypeText, false},
	}
	for _, tt := range tests {
		got, ok := ParsePlaceholderType(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParsePlaceholderType(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizedValueParsed(t *testing.T) {
	var nilValue *NormalizedValue
	if nilValue.Parsed() {
		t.Error("nil value reported as parsed")
	}
	lit := "abc"
	if (&NormalizedValue{Kind: NormalizedLiteral, String: &lit}).Parsed() {
		t.Error("literal reported as parsed")
	}
	n := 1.5
	if !(&NormalizedValue{Kind: NormalizedNumber, Number: &n}).Parsed() {
		t.Error("number not reported as parsed")
	}
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in   string
		want Dialect
		ok   bool
	}{
		{"docx", DialectWordXML, true},
		{"word_xml", DialectWordXML, true},
		{"HTML", DialectExportedHTML, true},
		{"pdf", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDialect(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseDialect(%q) = %v, %v", tt.in, got, ok)
		}
	}
	if !DialectWordXML.Valid() || Dialect("x").Valid() {
		t.Error("Valid() mismatch")
	}
}

package model

import (
	"encoding/csv"
	"strings"
)

// Table represents a table with an optional header row.
//
// When Headers is non-empty every row has exactly len(Headers) cells. When
// the first row could not be identified as headers, Headers is empty and all
// rows are data rows.
type Table struct {
	ID      string     `json:"id"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// NewTable builds a table from raw rows. If headerRow is set the first row
// becomes the header and the remaining rows are padded or truncated to the
// header width.
func NewTable(id string, rows [][]string, headerRow bool) *Table {
	t := &Table{
		ID:      id,
		Headers: []string{},
		Rows:    make([][]string, 0, len(rows)),
	}

	if headerRow && len(rows) > 0 && len(rows[0]) > 0 {
		t.Headers = cloneRow(rows[0])
		rows = rows[1:]
	}

	for _, row := range rows {
		r := cloneRow(row)
		if len(t.Headers) > 0 {
			r = fitRow(r, len(t.Headers))
		}
		t.Rows = append(t.Rows, r)
	}

	return t
}

// ColCount returns the header width, or the widest data row when there are no
// headers
func (t *Table) ColCount() int {
	if len(t.Headers) > 0 {
		return len(t.Headers)
	}
	count := 0
	for _, row := range t.Rows {
		if len(row) > count {
			count = len(row)
		}
	}
	return count
}

// Consistent reports whether the header invariant holds.
func (t *Table) Consistent() bool {
	if len(t.Headers) == 0 {
		return true
	}
	for _, row := range t.Rows {
		if len(row) != len(t.Headers) {
			return false
		}
	}
	return true
}

// ToMarkdown converts the table to markdown format. Tables without headers
// get an empty header row so the output stays valid GFM.
func (t *Table) ToMarkdown() string {
	cols := t.ColCount()
	if cols == 0 {
		return ""
	}

	var sb strings.Builder

	header := t.Headers
	if len(header) == 0 {
		header = make([]string, cols)
	}
	writeMarkdownRow(&sb, header, cols)

	for j := 0; j < cols; j++ {
		sb.WriteString("|---")
	}
	sb.WriteString("|\n")

	for _, row := range t.Rows {
		writeMarkdownRow(&sb, row, cols)
	}

	return sb.String()
}

// ToCSV converts the table to CSV format, headers first
func (t *Table) ToCSV() string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if len(t.Headers) > 0 {
		_ = w.Write(t.Headers)
	}
	_ = w.WriteAll(t.Rows)
	return sb.String()
}

func writeMarkdownRow(sb *strings.Builder, row []string, cols int) {
	for j := 0; j < cols; j++ {
		cell := ""
		if j < len(row) {
			cell = strings.ReplaceAll(row[j], "\n", " ")
			cell = strings.ReplaceAll(cell, "|", "\\|")
		}
		sb.WriteString("| ")
		sb.WriteString(cell)
		sb.WriteString(" ")
	}
	sb.WriteString("|\n")
}

func cloneRow(row []string) []string {
	out := make([]string, len(row))
	copy(out, row)
	return out
}

// fitRow pads or truncates row to exactly n cells.
func fitRow(row []string, n int) []string {
	if len(row) > n {
		return row[:n]
	}
	for len(row) < n {
		row = append(row, "")
	}
	return row
}

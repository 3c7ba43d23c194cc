package model

import "strings"

// Dialect identifies the markup format a document arrived in.
type Dialect string

const (
	// DialectWordXML is WordprocessingML (word/document.xml).
	DialectWordXML Dialect = "word_xml"
	// DialectExportedHTML is rich-text HTML exported from a cloud editor.
	DialectExportedHTML Dialect = "exported_html"
)

// String returns the string representation of the dialect.
func (d Dialect) String() string {
	return string(d)
}

// Valid reports whether d is a known dialect.
func (d Dialect) Valid() bool {
	return d == DialectWordXML || d == DialectExportedHTML
}

// ParseDialect maps loose user input ("docx", "html", "word_xml") to a Dialect.
func ParseDialect(s string) (Dialect, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "word_xml", "wordxml", "docx", "xml", "ooxml":
		return DialectWordXML, true
	case "exported_html", "exportedhtml", "html", "htm", "gdocs":
		return DialectExportedHTML, true
	}
	return "", false
}

// RawDocument is the immutable pipeline input.
type RawDocument struct {
	Dialect Dialect `json:"dialect"`
	Markup  string  `json:"markup"`

	// Styles and Numbering hold word/styles.xml and word/numbering.xml for
	// the WordXML dialect. Both are optional.
	Styles    string `json:"styles,omitempty"`
	Numbering string `json:"numbering,omitempty"`

	// Name is an optional label (usually the source file name).
	Name string `json:"name,omitempty"`
}

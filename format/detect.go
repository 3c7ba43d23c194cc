// Package format provides input format detection for the docstruct pipeline.
package format

import (
	"archive/zip"
	"io"
	"path/filepath"
	"strings"

	"github.com/tsawler/docstruct/model"
)

// Format represents a supported input container.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// DOCX indicates a zipped Word (.docx) archive.
	DOCX
	// WordXML indicates bare WordprocessingML (word/document.xml).
	WordXML
	// HTML indicates an HTML document.
	HTML
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case DOCX:
		return "DOCX"
	case WordXML:
		return "WordXML"
	case HTML:
		return "HTML"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case DOCX:
		return ".docx"
	case WordXML:
		return ".xml"
	case HTML:
		return ".html"
	default:
		return ""
	}
}

// Dialect returns the markup dialect the format carries. Unknown formats
// report false.
func (f Format) Dialect() (model.Dialect, bool) {
	switch f {
	case DOCX, WordXML:
		return model.DialectWordXML, true
	case HTML:
		return model.DialectExportedHTML, true
	default:
		return "", false
	}
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".docx":
		return DOCX
	case ".xml":
		return WordXML
	case ".html", ".htm":
		return HTML
	default:
		return Unknown
	}
}

// DetectFromMagic checks leading bytes to determine format.
// Returns Unknown if the format cannot be determined from magic bytes alone.
func DetectFromMagic(data []byte) Format {
	if len(data) < 4 {
		return Unknown
	}

	// ZIP magic (DOCX is a ZIP archive): PK\x03\x04
	if isZIP(data) {
		// Could be any ZIP-based format; DetectFromReader inspects entries.
		return Unknown
	}

	if detectHTMLMagic(data) {
		return HTML
	}

	if detectWordXMLMagic(data) {
		return WordXML
	}

	return Unknown
}

func isZIP(data []byte) bool {
	return len(data) >= 4 && data[0] == 0x50 && data[1] == 0x4B && data[2] == 0x03 && data[3] == 0x04
}

// trimLeading skips whitespace and a UTF-8 byte order mark.
func trimLeading(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	start := 0
	for start < len(data) && (data[start] == ' ' || data[start] == '\t' || data[start] == '\n' || data[start] == '\r') {
		start++
	}
	return data[start:]
}

// detectHTMLMagic checks if the data looks like HTML content.
func detectHTMLMagic(data []byte) bool {
	data = trimLeading(data)
	if len(data) == 0 {
		return false
	}

	// Check for common HTML signatures (case-insensitive for DOCTYPE)
	upper := strings.ToUpper(string(data[:min(len(data), 1024)]))
	if strings.HasPrefix(upper, "<!DOCTYPE HTML") {
		return true
	}
	if strings.HasPrefix(upper, "<HTML") {
		return true
	}
	// XML declaration followed by html-like content could be XHTML
	if strings.HasPrefix(upper, "<?XML") && strings.Contains(upper, "<HTML") {
		return true
	}
	// Exported fragments often start directly at the body or a block element.
	for _, prefix := range []string{"<BODY", "<META", "<DIV", "<P>", "<P ", "<H1", "<TABLE", "<SPAN"} {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}

	return false
}

// detectWordXMLMagic checks for a WordprocessingML document root.
func detectWordXMLMagic(data []byte) bool {
	data = trimLeading(data)
	head := string(data[:min(len(data), 2048)])
	return strings.HasPrefix(head, "<") &&
		(strings.Contains(head, "<w:document") || strings.Contains(head, "wordprocessingml"))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// DetectFromReader inspects the content to determine format.
// This is more reliable than extension-based detection and can tell a DOCX
// archive apart from other ZIP-based formats.
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	magic := make([]byte, 2048)
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	magic = magic[:n]

	if isZIP(magic) {
		return detectZIPFormat(r, size)
	}

	return DetectFromMagic(magic), nil
}

// detectZIPFormat inspects a ZIP archive to determine if it is a DOCX.
func detectZIPFormat(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, err
	}

	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			return DOCX, nil
		}
	}

	return Unknown, nil
}

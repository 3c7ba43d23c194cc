package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/docstruct/model"
)

// Package parts read from a .docx archive.
const (
	partDocument  = "word/document.xml"
	partStyles    = "word/styles.xml"
	partNumbering = "word/numbering.xml"
	partCore      = "docProps/core.xml"
)

// OpenArchive reads a .docx file into a WordprocessingML RawDocument.
// The document name is the core-properties title, or the file name when
// the package has no title.
func OpenArchive(path string) (model.RawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.RawDocument{}, fmt.Errorf("reading archive: %w", err)
	}
	raw, err := ReadArchive(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return model.RawDocument{}, err
	}
	if raw.Name == "" {
		raw.Name = filepath.Base(path)
	}
	return raw, nil
}

// ReadArchive reads a .docx package from r. Only word/document.xml is
// required; styles and numbering parts are attached when present.
func ReadArchive(r io.ReaderAt, size int64) (model.RawDocument, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return model.RawDocument{}, fmt.Errorf("opening ZIP archive: %w", err)
	}

	document, err := getFileContent(zr, partDocument)
	if err != nil {
		return model.RawDocument{}, fmt.Errorf("missing required file: %s", partDocument)
	}

	raw := model.RawDocument{
		Dialect: model.DialectWordXML,
		Markup:  string(document),
	}

	if styles, err := getFileContent(zr, partStyles); err == nil {
		raw.Styles = string(styles)
	}
	if numbering, err := getFileContent(zr, partNumbering); err == nil {
		raw.Numbering = string(numbering)
	}
	if core, err := getFileContent(zr, partCore); err == nil {
		var props corePropertiesXML
		if xml.Unmarshal(core, &props) == nil {
			raw.Name = strings.TrimSpace(props.Title)
		}
	}

	return raw, nil
}

// getFileContent reads the content of a file from the ZIP archive.
func getFileContent(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("file not found: %s", name)
}

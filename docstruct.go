// Package docstruct provides a fluent API for turning word-processor and
// exported HTML documents into a structured DocumentModel.
//
// Basic usage:
//
//	doc, err := docstruct.Open("contract.docx").Analyze(ctx)
//	if err != nil {
//	    // handle error
//	}
//	for _, p := range doc.Placeholders {
//	    fmt.Println(p.Variable, p.Text, p.Confidence)
//	}
//
// With options:
//
//	doc, err := docstruct.FromHTML(html).
//	    MinConfidence(80).
//	    WithService(svc).
//	    Analyze(ctx)
//
// For batch processing, configuration files and metrics, the lower-level
// pipeline package is also available.
package docstruct

import (
	"github.com/tsawler/docstruct/model"
)

// Open returns an Analyzer for a file on disk. The file is read lazily by
// the first terminal operation. .docx archives, bare word/document.xml
// files and HTML exports are recognised by extension, then by content.
//
// Example:
//
//	doc, err := docstruct.Open("contract.docx").Analyze(ctx)
func Open(filename string) *Analyzer {
	return &Analyzer{
		filename: filename,
		options:  defaultOptions(),
	}
}

// FromHTML returns an Analyzer for exported rich-text HTML.
func FromHTML(markup string) *Analyzer {
	return FromRaw(model.RawDocument{
		Dialect: model.DialectExportedHTML,
		Markup:  markup,
	})
}

// FromWordXML returns an Analyzer for WordprocessingML markup. styles and
// numbering hold word/styles.xml and word/numbering.xml and may be empty.
func FromWordXML(document, styles, numbering string) *Analyzer {
	return FromRaw(model.RawDocument{
		Dialect:   model.DialectWordXML,
		Markup:    document,
		Styles:    styles,
		Numbering: numbering,
	})
}

// FromRaw returns an Analyzer for an already assembled RawDocument.
func FromRaw(raw model.RawDocument) *Analyzer {
	return &Analyzer{
		raw:     &raw,
		options: defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	doc := docstruct.Must(docstruct.Open("contract.docx").Analyze(ctx))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

package docstruct

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tsawler/docstruct/docx"
	"github.com/tsawler/docstruct/format"
	"github.com/tsawler/docstruct/model"
	"github.com/tsawler/docstruct/pipeline"
	"github.com/tsawler/docstruct/placeholder"
)

// ErrUnsupportedFormat is returned by terminal operations when a file is
// neither a .docx archive, WordprocessingML nor HTML.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Analyzer provides a fluent interface for analysing one document.
// Each configuration method returns a new Analyzer instance, making it
// safe for concurrent use and allowing method chaining.
type Analyzer struct {
	// Source: either a file read on demand or an in-memory document
	filename string
	raw      *model.RawDocument

	options analyzeOptions
}

// clone creates a shallow copy of the Analyzer with a copy of options.
func (a *Analyzer) clone() *Analyzer {
	return &Analyzer{
		filename: a.filename,
		raw:      a.raw,
		options:  a.options.clone(),
	}
}

// ============================================================================
// Configuration Methods (return new Analyzer instance)
// ============================================================================

// MinConfidence drops placeholder candidates scoring below n (0-100).
// A negative value keeps every candidate.
//
// Example:
//
//	doc, err := docstruct.Open("nda.docx").MinConfidence(85).Analyze(ctx)
func (a *Analyzer) MinConfidence(n int) *Analyzer {
	newA := a.clone()
	newA.options.minConfidence = n
	return newA
}

// WindowSize limits how many characters of document text are sent to the
// placeholder service.
func (a *Analyzer) WindowSize(n int) *Analyzer {
	newA := a.clone()
	newA.options.windowSize = n
	return newA
}

// ServiceTimeout bounds a single placeholder service call.
func (a *Analyzer) ServiceTimeout(d time.Duration) *Analyzer {
	newA := a.clone()
	newA.options.serviceTimeout = d
	return newA
}

// WithService enables placeholder extraction through an external
// text-understanding service. Pattern extraction always runs; service
// failures fall back to it.
//
// Example:
//
//	svc, _ := llm.NewGemini(ctx, llm.GeminiConfig{APIKey: key})
//	doc, err := docstruct.Open("nda.docx").WithService(svc).Analyze(ctx)
func (a *Analyzer) WithService(svc placeholder.Service) *Analyzer {
	newA := a.clone()
	newA.options.service = svc
	return newA
}

// Logger sets the logger used for run diagnostics (default: slog.Default()).
func (a *Analyzer) Logger(l *slog.Logger) *Analyzer {
	newA := a.clone()
	newA.options.logger = l
	return newA
}

// Registerer records run metrics with reg.
func (a *Analyzer) Registerer(reg prometheus.Registerer) *Analyzer {
	newA := a.clone()
	newA.options.registerer = reg
	return newA
}

// Name sets the document label reported in logs and results.
func (a *Analyzer) Name(name string) *Analyzer {
	newA := a.clone()
	newA.options.name = name
	return newA
}

// ============================================================================
// Terminal Operations
// ============================================================================

// Document returns the RawDocument that Analyze would process, reading the
// source file if needed.
func (a *Analyzer) Document() (model.RawDocument, error) {
	raw, err := a.load()
	if err != nil {
		return model.RawDocument{}, err
	}
	if a.options.name != "" {
		raw.Name = a.options.name
	}
	return raw, nil
}

// Analyze runs the full pipeline and returns the document model.
//
// Example:
//
//	doc, err := docstruct.FromHTML(html).Analyze(ctx)
//	fmt.Println(doc.Title(), doc.Confidence)
func (a *Analyzer) Analyze(ctx context.Context) (*model.DocumentModel, error) {
	raw, err := a.Document()
	if err != nil {
		return nil, err
	}
	return a.pipeline().Run(ctx, raw)
}

// Placeholders returns only the placeholder candidates, highest
// confidence first.
//
// Example:
//
//	for _, p := range docstruct.Must(docstruct.Open("nda.docx").Placeholders(ctx)) {
//	    fmt.Printf("%s -> %s\n", p.Text, p.Variable)
//	}
func (a *Analyzer) Placeholders(ctx context.Context) ([]model.PlaceholderCandidate, error) {
	doc, err := a.Analyze(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Placeholders, nil
}

// Sections returns the document's heading-delimited sections.
func (a *Analyzer) Sections(ctx context.Context) ([]model.Section, error) {
	doc, err := a.Analyze(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Sections, nil
}

// Text returns the classified document text in reading order.
func (a *Analyzer) Text(ctx context.Context) (string, error) {
	doc, err := a.Analyze(ctx)
	if err != nil {
		return "", err
	}
	return doc.PlainText(), nil
}

// ============================================================================
// Internal Methods
// ============================================================================

func (a *Analyzer) pipeline() *pipeline.Pipeline {
	o := a.options
	var opts []pipeline.Option
	if o.service != nil {
		opts = append(opts, pipeline.WithService(o.service))
	}
	if o.registerer != nil {
		opts = append(opts, pipeline.WithRegisterer(o.registerer))
	}
	return pipeline.New(pipeline.Config{
		MinConfidence:  o.minConfidence,
		WindowSize:     o.windowSize,
		ServiceTimeout: o.serviceTimeout,
		Logger:         o.logger,
	}, opts...)
}

// load returns the in-memory document or reads the source file.
func (a *Analyzer) load() (model.RawDocument, error) {
	if a.raw != nil {
		return *a.raw, nil
	}
	if a.filename == "" {
		return model.RawDocument{}, fmt.Errorf("no filename specified")
	}

	f := format.Detect(a.filename)
	if f == format.Unknown {
		var err error
		if f, err = detectFile(a.filename); err != nil {
			return model.RawDocument{}, err
		}
	}

	if f == format.DOCX {
		raw, err := docx.OpenArchive(a.filename)
		if err != nil {
			return model.RawDocument{}, fmt.Errorf("failed to open DOCX: %w", err)
		}
		return raw, nil
	}

	dialect, ok := f.Dialect()
	if !ok {
		return model.RawDocument{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, a.filename)
	}
	data, err := os.ReadFile(a.filename)
	if err != nil {
		return model.RawDocument{}, fmt.Errorf("failed to read %s: %w", a.filename, err)
	}
	return model.RawDocument{
		Dialect: dialect,
		Markup:  string(data),
		Name:    filepath.Base(a.filename),
	}, nil
}

// detectFile sniffs the content of a file whose extension is not known.
func detectFile(filename string) (format.Format, error) {
	file, err := os.Open(filename)
	if err != nil {
		return format.Unknown, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return format.Unknown, fmt.Errorf("failed to stat file: %w", err)
	}
	return format.DetectFromReader(file, info.Size())
}

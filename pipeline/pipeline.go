// Package pipeline turns raw document markup into a DocumentModel.
//
// A run cleans the markup, rewrites presentational markup into semantic
// HTML, reads paragraph and table nodes, classifies them, derives sections,
// tables and the signature block, extracts placeholder candidates and
// normalizes their values.
//
// Usage:
//
//	pipe := pipeline.New(pipeline.Config{})
//	doc, err := pipe.Run(ctx, model.RawDocument{
//	    Dialect: model.DialectExportedHTML,
//	    Markup:  html,
//	})
//	fmt.Println(doc.Title(), len(doc.Placeholders), "placeholders")
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tsawler/docstruct/classify"
	"github.com/tsawler/docstruct/docx"
	"github.com/tsawler/docstruct/htmldoc"
	"github.com/tsawler/docstruct/markup"
	"github.com/tsawler/docstruct/model"
	"github.com/tsawler/docstruct/placeholder"
	"github.com/tsawler/docstruct/retag"
	"github.com/tsawler/docstruct/value"
)

// Pipeline is the document analysis engine. It holds no per-run state and
// is safe for concurrent use.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger

	cleaner    *markup.Cleaner
	retagger   *retag.Retagger
	classifier *classify.Classifier
	extractor  *placeholder.Extractor
	md         *converter.Converter
	metrics    *metrics

	service    placeholder.Service
	registerer prometheus.Registerer
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithService sets the external text-understanding service.
func WithService(svc placeholder.Service) Option {
	return func(p *Pipeline) { p.service = svc }
}

// WithRegisterer registers the pipeline metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(p *Pipeline) { p.registerer = reg }
}

// WithClassifier replaces the default element classifier.
func WithClassifier(c *classify.Classifier) Option {
	return func(p *Pipeline) { p.classifier = c }
}

// WithRetagger replaces the default re-tagger.
func WithRetagger(r *retag.Retagger) Option {
	return func(p *Pipeline) { p.retagger = r }
}

// New creates a Pipeline with the given configuration. The service named
// in cfg.Service is not created; use NewFromConfig or WithService.
func New(cfg Config, opts ...Option) *Pipeline {
	cfg.defaults()
	p := &Pipeline{
		cfg:        cfg,
		logger:     cfg.Logger,
		cleaner:    markup.NewWithConfig(markup.Config{MinTextRatio: cfg.MinTextRatio}),
		retagger:   newRetagger(cfg),
		classifier: classify.New(),
		md:         newMarkdownConverter(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.extractor = placeholder.New(placeholder.Config{
		Service:       p.service,
		Timeout:       cfg.ServiceTimeout,
		WindowSize:    cfg.WindowSize,
		MinConfidence: cfg.MinConfidence,
		Logger:        cfg.Logger,
	})
	p.metrics = newMetrics(p.registerer)
	return p
}

func newRetagger(cfg Config) *retag.Retagger {
	rc := retag.DefaultConfig()
	rc.BodyRelative = !cfg.AbsoluteBands
	return retag.NewWithConfig(rc)
}

// NewFromConfig creates a Pipeline and the service described by
// cfg.Service. Options are applied after the configured service, so
// WithService overrides it.
func NewFromConfig(ctx context.Context, cfg Config, opts ...Option) (*Pipeline, error) {
	svc, err := NewService(ctx, cfg.Service)
	if err != nil {
		return nil, fmt.Errorf("creating placeholder service: %w", err)
	}
	if svc != nil {
		opts = append([]Option{WithService(svc)}, opts...)
	}
	return New(cfg, opts...), nil
}

// Config returns the effective configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Run analyses one document. It returns either a complete model or an
// error: an *InputError when the markup cannot be read, or the context's
// error when ctx is done before the run completes.
func (p *Pipeline) Run(ctx context.Context, raw model.RawDocument) (*model.DocumentModel, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID, "dialect", raw.Dialect)
	if raw.Name != "" {
		logger = logger.With("name", raw.Name)
	}

	doc, err := p.run(ctx, raw, runID, logger)
	dialect := string(raw.Dialect)
	switch {
	case err == nil:
		elapsed := time.Since(start)
		doc.Metadata.ProcessingTimeMs = elapsed.Milliseconds()
		p.metrics.runs.WithLabelValues(dialect, statusOK).Inc()
		p.metrics.duration.WithLabelValues(dialect).Observe(elapsed.Seconds())
		p.metrics.placeholders.Observe(float64(len(doc.Placeholders)))
		logger.Info("document analysed",
			"elements", len(doc.Elements),
			"placeholders", len(doc.Placeholders),
			"confidence", doc.Confidence,
			"duration", elapsed)
		return doc, nil
	case errors.Is(err, ErrInput):
		p.metrics.runs.WithLabelValues(dialect, statusInput).Inc()
		logger.Warn("document rejected", "error", err)
	default:
		p.metrics.runs.WithLabelValues(dialect, statusCanceled).Inc()
		logger.Debug("run abandoned", "error", err)
	}
	return nil, err
}

func (p *Pipeline) run(ctx context.Context, raw model.RawDocument, runID string, logger *slog.Logger) (*model.DocumentModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !raw.Dialect.Valid() {
		return nil, &InputError{Dialect: raw.Dialect, Err: fmt.Errorf("unknown dialect %q", raw.Dialect)}
	}
	if strings.TrimSpace(raw.Markup) == "" {
		return nil, &InputError{Dialect: raw.Dialect, Err: ErrEmptyMarkup}
	}

	// Whether the input is HTML at all is decided on the raw markup; the
	// cleaner may legitimately strip every tag from valid input.
	if raw.Dialect == model.DialectExportedHTML && !htmldoc.HasElements(raw.Markup) {
		return nil, &InputError{Dialect: raw.Dialect, Err: htmldoc.ErrNoElements}
	}

	cleaned := p.cleaner.Clean(raw)
	warnings := append([]string{}, cleaned.Warnings...)
	logger.Debug("markup cleaned", "removed", len(cleaned.Removed), "reverted", cleaned.Reverted)

	mc := retag.NewMappingContext()
	var (
		nodes    []model.Node
		semantic string
	)
	switch raw.Dialect {
	case model.DialectWordXML:
		src := raw
		src.Markup = cleaned.Markup
		doc, err := docx.Read(src)
		if err != nil {
			return nil, &InputError{Dialect: raw.Dialect, Err: err}
		}
		warnings = append(warnings, doc.Warnings...)
		for _, m := range doc.StyleMappings() {
			mc.Record(m.OriginalStyle, m.Tag, m.Confidence, m.Reason)
		}
		semantic = p.retagger.Retag(doc.RenderHTML(), mc).HTML
		nodes = doc.Nodes()

	case model.DialectExportedHTML:
		semantic = p.retagger.Retag(cleaned.Markup, mc).HTML
		nodes = htmldoc.ParseFragment(semantic)
	}
	logger.Debug("nodes read", "nodes", len(nodes), "mappings", mc.Len())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	elements := p.classifier.ClassifyAll(nodes)
	var headerRows []bool
	for _, n := range nodes {
		if n.Kind == model.NodeTable && len(n.Rows) > 0 {
			headerRows = append(headerRows, n.HeaderRow)
		}
	}
	tables := buildTables(elements, headerRows)
	sections := buildSections(elements, tables, p.md)
	signature := findSignature(elements)

	res, err := p.extractor.Extract(ctx, model.ElementsText(elements))
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, res.Warnings...)
	value.NormalizeAll(res.Candidates)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mappings := mc.Mappings()
	doc := &model.DocumentModel{
		Elements:     elements,
		Sections:     sections,
		Tables:       tables,
		Placeholders: res.Candidates,
		Signature:    signature,
		Confidence:   documentConfidence(elements, mappings, res.ServiceErr != nil),
		HTML:         semantic,
		Metadata: model.Diagnostics{
			RunID:            runID,
			Dialect:          raw.Dialect,
			ExtractionMethod: res.Method,
			ElementsFound:    countElements(elements, sections, tables),
			Warnings:         warnings,
			RemovedElements:  cleaned.Removed,
			StyleMappings:    mappings,
		},
	}
	if res.ServiceErr != nil {
		doc.Metadata.ServiceError = res.ServiceErr.Error()
		p.metrics.fallbacks.Inc()
	}
	return doc, nil
}

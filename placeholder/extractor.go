// Package placeholder finds spans of a document that look like per-instance
// fields (names, dates, amounts, marked slots).
//
// Two paths feed the result. An optional external Service reads a window of
// the document text and answers with JSON; a static table of pattern
// families always runs. Service candidates are accepted first, pattern
// candidates that overlap an accepted text are dropped, and the survivors
// are sorted by confidence. A failing or slow service never fails the
// extraction: the pattern path alone is returned with a warning.
//
// Basic usage:
//
//	ex := placeholder.New(placeholder.Config{Service: svc})
//	res, err := ex.Extract(ctx, text)
//	for _, c := range res.Candidates {
//	    fmt.Println(c.Variable, c.Confidence, c.Text)
//	}
package placeholder

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tsawler/docstruct/model"
)

// Defaults used when the corresponding Config field is zero.
const (
	DefaultTimeout       = 20 * time.Second
	DefaultWindowSize    = 3500
	DefaultMinConfidence = 70
)

// Config controls an Extractor.
type Config struct {
	// Service is the optional external text-understanding service.
	Service Service
	// Timeout bounds a single service call.
	Timeout time.Duration
	// WindowSize is the number of leading characters sent to the service.
	WindowSize int
	// MinConfidence drops candidates scoring below it. Zero selects
	// DefaultMinConfidence; a negative value keeps every candidate.
	MinConfidence int
	// Patterns overrides DefaultPatterns.
	Patterns []Pattern
	Logger   *slog.Logger
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.WindowSize <= 0 {
		c.WindowSize = DefaultWindowSize
	}
	if c.MinConfidence == 0 {
		c.MinConfidence = DefaultMinConfidence
	}
	if c.Patterns == nil {
		c.Patterns = DefaultPatterns
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Result is the outcome of one extraction.
type Result struct {
	Candidates []model.PlaceholderCandidate
	// Method is model.MethodPattern or model.MethodExternalMerged.
	Method   string
	Warnings []string
	// ServiceErr is the service failure that forced the pattern-only path.
	ServiceErr error
}

// Extractor runs placeholder extraction. It is safe for concurrent use.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an Extractor with the given configuration.
func New(cfg Config) *Extractor {
	cfg.defaults()
	return &Extractor{cfg: cfg, logger: cfg.Logger}
}

// Config returns the effective configuration.
func (e *Extractor) Config() Config {
	return e.cfg
}

// Extract finds placeholder candidates in text. The only error it returns is
// the context's, when ctx is done.
func (e *Extractor) Extract(ctx context.Context, text string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	text = normalizeSpace(text)
	res := Result{Method: model.MethodPattern}

	var external []model.PlaceholderCandidate
	if e.cfg.Service != nil && text != "" {
		cands, err := e.callService(ctx, text)
		switch {
		case err == nil:
			external = cands
			res.Method = model.MethodExternalMerged
		case ctx.Err() != nil:
			return Result{}, ctx.Err()
		default:
			res.ServiceErr = err
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("placeholder service unavailable, using pattern extraction only: %v", err))
			e.logger.Warn("placeholder service failed", "error", err)
		}
	}

	patterns := MatchPatterns(text, e.cfg.Patterns)
	res.Candidates = Merge(external, patterns, e.cfg.MinConfidence)

	e.logger.Debug("placeholders extracted",
		"method", res.Method,
		"external", len(external),
		"pattern", len(patterns),
		"kept", len(res.Candidates))
	return res, nil
}

func (e *Extractor) callService(ctx context.Context, text string) ([]model.PlaceholderCandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	type answer struct {
		raw string
		err error
	}
	// Buffered so a service that ignores ctx can still finish and exit.
	done := make(chan answer, 1)
	req := Request{
		TextWindow: truncate(text, e.cfg.WindowSize),
		SchemaHint: SchemaHint,
	}
	go func() {
		raw, err := e.cfg.Service.Analyze(ctx, req)
		done <- answer{raw, err}
	}()

	var raw string
	select {
	case a := <-done:
		if a.err != nil {
			return nil, fmt.Errorf("calling placeholder service: %w", a.err)
		}
		raw = a.raw
	case <-ctx.Done():
		return nil, fmt.Errorf("calling placeholder service: %w", ctx.Err())
	}
	// A service that answers after its deadline is treated as timed out.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("calling placeholder service: %w", err)
	}

	cands, err := ParseResponse(raw)
	if err != nil {
		return nil, err
	}
	for i := range cands {
		if indexFold(text, cands[i].Text) >= 0 || cands[i].Context == "" {
			cands[i].Context = Context(text, cands[i].Text)
		}
	}
	return cands, nil
}

// Merge combines service and pattern candidates. Candidates below
// minConfidence are discarded first. Service candidates are accepted in
// order; a pattern candidate is dropped when its text contains, or is
// contained in, an accepted text (case-insensitive). The result is sorted by
// descending confidence, keeping acceptance order among ties.
func Merge(external, patterns []model.PlaceholderCandidate, minConfidence int) []model.PlaceholderCandidate {
	accepted := make([]model.PlaceholderCandidate, 0, len(external)+len(patterns))
	var keys []string

	for _, c := range external {
		if c.Confidence < minConfidence {
			continue
		}
		key := strings.ToLower(c.Text)
		if contains(keys, key) {
			continue
		}
		accepted = append(accepted, c)
		keys = append(keys, key)
	}

	for _, c := range patterns {
		if c.Confidence < minConfidence {
			continue
		}
		key := strings.ToLower(c.Text)
		if overlaps(keys, key) {
			continue
		}
		accepted = append(accepted, c)
		keys = append(keys, key)
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Confidence > accepted[j].Confidence
	})
	return accepted
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func overlaps(keys []string, key string) bool {
	for _, k := range keys {
		if strings.Contains(k, key) || strings.Contains(key, k) {
			return true
		}
	}
	return false
}

// normalizeSpace collapses all whitespace runs to single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate returns the first n characters of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

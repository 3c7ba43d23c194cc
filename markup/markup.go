// Package markup strips vendor-specific noise from raw document markup.
//
// The cleaner handles both input dialects:
//
//   - Exported HTML: comments, head/script/style content, vendor classes and
//     ids are removed. Class rules declared in <style> blocks are inlined into
//     style attributes first, so presentational information that the
//     re-tagger needs (font size, weight, alignment) survives.
//   - WordprocessingML: comments, proofing marks, bookmarks, revision ids and
//     empty runs are removed.
//
// Cleaning never fails. If a rule would reduce a non-empty document to
// nothing, the original markup is returned together with a warning.
package markup

import (
	"sort"
	"strings"

	"github.com/tsawler/docstruct/model"
)

// WarnReverted is recorded when the safety valve restores the original markup.
const WarnReverted = "markup: over-aggressive cleaning reverted, original markup kept"

// Result is the output of a cleaning pass.
type Result struct {
	// Markup is the cleaned markup (or the original when Reverted is set).
	Markup string
	// Removed lists the names of removed elements, for diagnostics only.
	Removed []string
	// Warnings collects non-fatal issues.
	Warnings []string
	// Reverted is set when the safety valve discarded the cleaning result.
	Reverted bool
}

// Config tunes the safety valve.
type Config struct {
	// MinTextRatio is the minimum share of visible text that must survive
	// cleaning for documents with at least MinTextForRatio visible
	// characters. Default: 0.1
	MinTextRatio float64

	// MinTextForRatio is the visible text length above which MinTextRatio
	// applies. Default: 200
	MinTextForRatio int
}

// DefaultConfig returns the default cleaner configuration.
func DefaultConfig() Config {
	return Config{
		MinTextRatio:    0.1,
		MinTextForRatio: 200,
	}
}

// Cleaner removes markup noise. A Cleaner is safe for concurrent use.
type Cleaner struct {
	config Config
}

// New creates a Cleaner with default configuration.
func New() *Cleaner {
	return &Cleaner{config: DefaultConfig()}
}

// NewWithConfig creates a Cleaner with custom configuration.
func NewWithConfig(config Config) *Cleaner {
	if config.MinTextRatio <= 0 {
		config.MinTextRatio = DefaultConfig().MinTextRatio
	}
	if config.MinTextForRatio <= 0 {
		config.MinTextForRatio = DefaultConfig().MinTextForRatio
	}
	return &Cleaner{config: config}
}

// Clean cleans raw markup using a default Cleaner.
func Clean(raw model.RawDocument) Result {
	return New().Clean(raw)
}

// Clean removes noise from the markup of raw according to its dialect.
func (c *Cleaner) Clean(raw model.RawDocument) Result {
	original := raw.Markup
	if strings.TrimSpace(original) == "" {
		return Result{Markup: original}
	}

	var (
		cleaned  string
		removed  *removals
		origText string
		newText  string
	)

	switch raw.Dialect {
	case model.DialectWordXML:
		cleaned, removed = cleanWordXML(original)
		origText = wordXMLText(original)
		newText = wordXMLText(cleaned)
	default:
		cleaned, removed = cleanHTML(original)
		origText = htmlText(original)
		newText = htmlText(cleaned)
	}

	if c.overAggressive(cleaned, origText, newText) {
		return Result{
			Markup:   original,
			Warnings: []string{WarnReverted},
			Reverted: true,
		}
	}

	return Result{
		Markup:  cleaned,
		Removed: removed.list(),
	}
}

// overAggressive reports whether a cleaning result must be discarded.
func (c *Cleaner) overAggressive(cleaned, origText, newText string) bool {
	if strings.TrimSpace(cleaned) == "" {
		return true
	}
	origLen := len([]rune(strings.TrimSpace(origText)))
	newLen := len([]rune(strings.TrimSpace(newText)))
	if origLen > 0 && newLen == 0 {
		return true
	}
	if origLen >= c.config.MinTextForRatio && float64(newLen) < float64(origLen)*c.config.MinTextRatio {
		return true
	}
	return false
}

// removals counts removed elements by name.
type removals struct {
	counts map[string]int
}

func newRemovals() *removals {
	return &removals{counts: make(map[string]int)}
}

func (r *removals) add(name string, n int) {
	if n > 0 {
		r.counts[name] += n
	}
}

// list returns the removed element names, sorted.
func (r *removals) list() []string {
	if r == nil || len(r.counts) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.counts))
	for name := range r.counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

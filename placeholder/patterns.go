package placeholder

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tsawler/docstruct/model"
)

// ContextRadius is the number of characters captured on each side of a
// candidate's first occurrence.
const ContextRadius = 50

// Pattern is one entry of the static pattern-family table.
type Pattern struct {
	Name       string
	Re         *regexp.Regexp
	Type       model.PlaceholderType
	Confidence int
	// TextGroup is the submatch used as the candidate text (0 = whole match).
	TextGroup int
	// NameGroup is the submatch used to derive the variable name. Zero means
	// names are generated from the type (email_1, date_2, ...).
	NameGroup int
}

const monthNames = `gener|febrer|mar[çc]|abril|maig|juny|juliol|agost|setembre|octubre|novembre|desembre|` +
	`enero|febrero|marzo|mayo|junio|julio|agosto|septiembre|setiembre|noviembre|diciembre|` +
	`january|february|march|april|may|june|july|august|september|october|november|december`

// DefaultPatterns lists the pattern families in priority order. Earlier
// families win when two candidates overlap.
var DefaultPatterns = []Pattern{
	{Name: "curly-braces", Re: regexp.MustCompile(`\{\{\s*([^{}]{1,80}?)\s*\}\}`), Type: model.TypeText, Confidence: 95, NameGroup: 1},
	{Name: "angle-brackets", Re: regexp.MustCompile(`<<\s*([^<>]{1,80}?)\s*>>`), Type: model.TypeText, Confidence: 92, NameGroup: 1},
	{Name: "square-brackets", Re: regexp.MustCompile(`\[\s*([^\[\]]{1,80}?)\s*\]`), Type: model.TypeText, Confidence: 90, NameGroup: 1},
	{Name: "underscores", Re: regexp.MustCompile(`_{2,}\s*([^_\s][^_]{0,59}?)\s*_{2,}`), Type: model.TypeText, Confidence: 85, NameGroup: 1},
	{Name: "email", Re: regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`), Type: model.TypeEmail, Confidence: 88},
	{Name: "currency", Re: regexp.MustCompile(`(?i)(?:[€$£]\s?\d(?:[\d.,]*\d)?)|(?:\d(?:[\d.,]*\d)?\s?(?:[€$£]|(?:eur|usd|gbp|euros?)\b))`), Type: model.TypeCurrency, Confidence: 75},
	{Name: "date-numeric", Re: regexp.MustCompile(`\b\d{1,2}[/.\-]\d{1,2}[/.\-](?:\d{4}|\d{2})\b`), Type: model.TypeDate, Confidence: 75},
	{Name: "date-long", Re: regexp.MustCompile(`(?i)\b\d{1,2}(?:\s+de)?\s+(?:d['’]\s*)?(?:` + monthNames + `)(?:\s+del?)?\s*,?\s+\d{4}\b`), Type: model.TypeDate, Confidence: 75},
	{Name: "date-month-first", Re: regexp.MustCompile(`(?i)\b(?:` + monthNames + `)\s+\d{1,2},?\s+\d{4}\b`), Type: model.TypeDate, Confidence: 75},
	{Name: "all-caps", Re: regexp.MustCompile(`(?:^|[^\p{L}\p{N}])(\p{Lu}[\p{Lu}\d ]{2,18}[\p{Lu}\d])(?:$|[^\p{L}\p{N}])`), Type: model.TypeText, Confidence: 60, TextGroup: 1},
}

// MatchPatterns runs every pattern over text and returns the candidates in
// table order, then position. A text matched twice keeps its first match.
func MatchPatterns(text string, patterns []Pattern) []model.PlaceholderCandidate {
	var out []model.PlaceholderCandidate
	seen := make(map[string]bool)
	counters := make(map[model.PlaceholderType]int)

	for _, p := range patterns {
		for _, m := range p.Re.FindAllStringSubmatchIndex(text, -1) {
			span := submatch(text, m, p.TextGroup)
			span = strings.TrimSpace(span)
			if span == "" {
				continue
			}
			key := strings.ToLower(span)
			if seen[key] {
				continue
			}
			seen[key] = true

			variable := ""
			if p.NameGroup > 0 {
				variable = Slugify(submatch(text, m, p.NameGroup))
			}
			if variable == "" {
				counters[p.Type]++
				variable = string(p.Type) + "_" + strconv.Itoa(counters[p.Type])
			}

			out = append(out, model.PlaceholderCandidate{
				Text:       span,
				Variable:   variable,
				Confidence: model.ClampConfidence(p.Confidence),
				Context:    Context(text, span),
				Type:       p.Type,
				Origin:     model.OriginPattern,
			})
		}
	}
	return out
}

func submatch(text string, m []int, group int) string {
	i := group * 2
	if i+1 >= len(m) || m[i] < 0 {
		return ""
	}
	return text[m[i]:m[i+1]]
}

// Context returns up to ContextRadius characters on each side of the first
// occurrence of span in text, including span itself. When span does not
// occur the span alone is returned.
func Context(text, span string) string {
	idx := strings.Index(text, span)
	if idx < 0 {
		idx = indexFold(text, span)
	}
	if idx < 0 {
		return span
	}

	start := idx
	for n := 0; n < ContextRadius && start > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	end := idx + len(span)
	for n := 0; n < ContextRadius && end < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return strings.TrimSpace(text[start:end])
}

// indexFold is a case-insensitive strings.Index that returns a byte offset
// into s.
func indexFold(s, sub string) int {
	if sub == "" {
		return 0
	}
	n := utf8.RuneCountInString(sub)
	for i := range s {
		j, k := i, 0
		for k < n && j < len(s) {
			_, size := utf8.DecodeRuneInString(s[j:])
			j += size
			k++
		}
		if k == n && strings.EqualFold(s[i:j], sub) {
			return i
		}
	}
	return -1
}

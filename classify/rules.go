package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tsawler/docstruct/model"
)

// Thresholds holds the tunable limits used by the default rules.
type Thresholds struct {
	// TitleFontSize is the size (pt) from which bold or centered text reads
	// as a title. Default: 14
	TitleFontSize float64

	// HeadingFontSize is the size (pt) from which bold text reads as a
	// heading. Default: 12
	HeadingFontSize float64

	// BoldLargeMaxLen bounds rule 3 (bold, large text). Default: 100
	BoldLargeMaxLen int

	// CenteredMaxLen bounds centered titles. Default: 80
	CenteredMaxLen int

	// BoldShortMaxLen bounds bold second-level headings. Default: 60
	BoldShortMaxLen int

	// PatternMaxLen bounds lines matched by textual heading patterns
	// (capitals, keywords, numbering, questions). Default: 80
	PatternMaxLen int

	// ShortLineMaxLen bounds the generic short-line heading rule. Default: 60
	ShortLineMaxLen int

	// MinListItemLen is the minimum length of list item content after its
	// marker. Default: 3
	MinListItemLen int
}

// DefaultThresholds returns the thresholds of DefaultRules.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TitleFontSize:   14,
		HeadingFontSize: 12,
		BoldLargeMaxLen: 100,
		CenteredMaxLen:  80,
		BoldShortMaxLen: 60,
		PatternMaxLen:   80,
		ShortLineMaxLen: 60,
		MinListItemLen:  3,
	}
}

// DefaultRules returns the default classification table.
func DefaultRules() []Rule {
	return RulesWithThresholds(DefaultThresholds())
}

// RulesWithThresholds returns the classification table, in precedence
// order, using the given thresholds.
//
// Textual heading patterns (capitals, keywords, numbering, questions and
// the generic short line) never apply to paragraphs the source already
// marks as list items.
func RulesWithThresholds(t Thresholds) []Rule {
	return []Rule{
		// 1. Closing and signature phrases.
		{
			Name:       "signature-phrase",
			Match:      func(n model.Node) bool { return signaturePattern.MatchString(n.Text) },
			Kind:       model.KindSignature,
			Confidence: 0.85,
		},

		// 2. Centered, bold, large.
		{
			Name: "centered-bold-large",
			Match: func(n model.Node) bool {
				f := n.Formatting
				return f.Centered && f.Bold && f.FontSize() >= t.TitleFontSize
			},
			Kind:       model.KindTitle,
			Confidence: 0.95,
		},

		// 3. Bold and large, short: title from TitleFontSize, else heading 1.
		{
			Name: "bold-large-title",
			Match: func(n model.Node) bool {
				f := n.Formatting
				return f.Bold && f.FontSize() >= t.TitleFontSize && length(n.Text) < t.BoldLargeMaxLen
			},
			Kind:       model.KindTitle,
			Confidence: 0.90,
		},
		{
			Name: "bold-large-heading",
			Match: func(n model.Node) bool {
				f := n.Formatting
				return f.Bold && f.FontSize() >= t.HeadingFontSize && length(n.Text) < t.BoldLargeMaxLen
			},
			Kind:       model.KindHeading1,
			Confidence: 0.85,
		},

		// 4. Centered short line.
		{
			Name: "centered-short",
			Match: func(n model.Node) bool {
				return n.Formatting.Centered && length(n.Text) < t.CenteredMaxLen && !endsWithPeriod(n.Text)
			},
			Kind:       model.KindTitle,
			Confidence: 0.80,
		},

		// 5. Bold short line.
		{
			Name: "bold-short",
			Match: func(n model.Node) bool {
				return n.Formatting.Bold && length(n.Text) < t.BoldShortMaxLen && !endsWithPeriod(n.Text)
			},
			Kind:       model.KindHeading2,
			Confidence: 0.75,
		},

		// 6. Style names, title before heading levels.
		{
			Name:       "style-title",
			Match:      func(n model.Node) bool { return styleKind(n.StyleName) == model.KindTitle },
			Kind:       model.KindTitle,
			Confidence: 0.95,
		},
		{
			Name:       "style-heading1",
			Match:      func(n model.Node) bool { return styleKind(n.StyleName) == model.KindHeading1 },
			Kind:       model.KindHeading1,
			Confidence: 0.95,
		},
		{
			Name:       "style-heading2",
			Match:      func(n model.Node) bool { return styleKind(n.StyleName) == model.KindHeading2 },
			Kind:       model.KindHeading2,
			Confidence: 0.95,
		},
		{
			Name:       "style-heading3",
			Match:      func(n model.Node) bool { return styleKind(n.StyleName) == model.KindHeading3 },
			Kind:       model.KindHeading3,
			Confidence: 0.95,
		},

		// 7. Textual patterns.
		{
			Name: "capitalized-short",
			Match: func(n model.Node) bool {
				return !n.ListMarker && patternLine(n.Text, t) && startsWithLetter(n.Text) &&
					!hasSectionMarker(n.Text) && !startsWithSectionKeyword(n.Text) &&
					(isAllCaps(n.Text) || isTitleCase(n.Text))
			},
			Kind:       model.KindTitle,
			Confidence: 0.65,
		},
		{
			Name: "section-keyword",
			Match: func(n model.Node) bool {
				return !n.ListMarker && patternLine(n.Text, t) && startsWithSectionKeyword(n.Text)
			},
			Kind:       model.KindHeading1,
			Confidence: 0.80,
		},
		{
			Name: "numbered-section-1",
			Match: func(n model.Node) bool {
				return !n.ListMarker && patternLine(n.Text, t) && numbered1.MatchString(n.Text)
			},
			Kind:       model.KindHeading1,
			Confidence: 0.75,
		},
		{
			Name: "numbered-section-2",
			Match: func(n model.Node) bool {
				return !n.ListMarker && patternLine(n.Text, t) && numbered2.MatchString(n.Text)
			},
			Kind:       model.KindHeading2,
			Confidence: 0.75,
		},
		{
			Name: "numbered-section-3",
			Match: func(n model.Node) bool {
				return !n.ListMarker && patternLine(n.Text, t) && numbered3.MatchString(n.Text)
			},
			Kind:       model.KindHeading3,
			Confidence: 0.75,
		},
		{
			Name: "roman-section",
			Match: func(n model.Node) bool {
				return !n.ListMarker && patternLine(n.Text, t) && romanSection.MatchString(n.Text)
			},
			Kind:       model.KindHeading1,
			Confidence: 0.70,
		},
		{
			Name: "lettered-section",
			Match: func(n model.Node) bool {
				return !n.ListMarker && patternLine(n.Text, t) && letteredSection.MatchString(n.Text)
			},
			Kind:       model.KindHeading2,
			Confidence: 0.70,
		},
		{
			Name: "question",
			Match: func(n model.Node) bool {
				return !n.ListMarker && length(n.Text) < t.PatternMaxLen && strings.HasSuffix(strings.TrimSpace(n.Text), "?")
			},
			Kind:       model.KindHeading2,
			Confidence: 0.60,
		},

		// 8. Generic short line.
		{
			Name: "short-line",
			Match: func(n model.Node) bool {
				text := strings.TrimSpace(n.Text)
				return !n.ListMarker && length(text) < t.ShortLineMaxLen && !endsWithPunctuation(text) &&
					startsUpper(text) && len(strings.Fields(text)) >= 2
			},
			Kind:       model.KindHeading2,
			Confidence: 0.55,
		},

		// 9. List items.
		{
			Name: "list-marker",
			Match: func(n model.Node) bool {
				if n.ListMarker {
					return true
				}
				m := listMarker.FindStringIndex(n.Text)
				return m != nil && length(strings.TrimSpace(n.Text[m[1]:])) >= t.MinListItemLen
			},
			Kind:       model.KindList,
			Confidence: 0.80,
		},
	}
}

// length counts runes.
func length(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// patternLine reports whether text is short enough for a textual heading
// pattern and does not end a sentence.
func patternLine(text string, t Thresholds) bool {
	return length(text) < t.PatternMaxLen && !endsWithPeriod(text)
}

func endsWithPeriod(s string) bool {
	return strings.HasSuffix(strings.TrimSpace(s), ".")
}

func endsWithPunctuation(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsPunct(r) && r != ')' && r != '"' && r != '»'
}

func startsWithLetter(s string) bool {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(s))
	return unicode.IsLetter(r)
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// isAllCaps reports whether s has at least two letters and no lower-case
// letter.
func isAllCaps(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 2
}

// isTitleCase reports whether s has at least two words and every word
// other than a short connective starts with an upper-case letter.
func isTitleCase(s string) bool {
	words := strings.Fields(s)
	if len(words) < 2 {
		return false
	}
	for i, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsLetter(r) {
			continue
		}
		if i > 0 && connectives[strings.ToLower(w)] {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

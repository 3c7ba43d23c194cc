// Package value converts placeholder text into typed values.
//
// Normalization never fails loudly: currency and percent text that holds no
// parseable number yields nil, while number and date text that cannot be
// parsed is kept as a literal so callers can tell the two apart by Kind.
package value

import (
	"github.com/tsawler/docstruct/model"
)

// Normalize projects text onto a typed value according to t. Types without
// a projection (text, email, other) return nil.
func Normalize(text string, t model.PlaceholderType) *model.NormalizedValue {
	switch t {
	case model.TypeCurrency:
		if f, ok := Amount(text); ok {
			return number(model.NormalizedCurrency, f)
		}
	case model.TypePercent:
		if f, ok := Amount(text); ok {
			return number(model.NormalizedPercent, f)
		}
	case model.TypeNumber:
		if f, ok := ParseNumber(text); ok {
			return number(model.NormalizedNumber, f)
		}
		return literal(text)
	case model.TypeDate:
		if d, ok := ParseDate(text); ok {
			return &model.NormalizedValue{Kind: model.NormalizedDate, String: &d}
		}
		return literal(text)
	}
	return nil
}

// NormalizeAll sets the normalized value of every candidate in place.
func NormalizeAll(candidates []model.PlaceholderCandidate) {
	for i := range candidates {
		candidates[i].Normalized = Normalize(candidates[i].Text, candidates[i].Type)
	}
}

func number(kind model.NormalizedKind, f float64) *model.NormalizedValue {
	return &model.NormalizedValue{Kind: kind, Number: &f}
}

func literal(text string) *model.NormalizedValue {
	return &model.NormalizedValue{Kind: model.NormalizedLiteral, String: &text}
}

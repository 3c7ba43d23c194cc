package model

import (
	"regexp"
	"strings"
)

// PlaceholderType is the inferred type of a placeholder candidate.
type PlaceholderType string

const (
	TypeText     PlaceholderType = "text"
	TypeDate     PlaceholderType = "date"
	TypeNumber   PlaceholderType = "number"
	TypeCurrency PlaceholderType = "currency"
	TypePercent  PlaceholderType = "percent"
	TypeEmail    PlaceholderType = "email"
	TypeOther    PlaceholderType = "other"
)

// ParsePlaceholderType maps a loosely spelled type onto the closed enum.
// Unknown values yield TypeText and false.
func ParsePlaceholderType(s string) (PlaceholderType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "string", "name":
		return TypeText, true
	case "date", "datetime":
		return TypeDate, true
	case "number", "numeric", "integer", "float":
		return TypeNumber, true
	case "currency", "money", "amount":
		return TypeCurrency, true
	case "percent", "percentage":
		return TypePercent, true
	case "email", "e-mail":
		return TypeEmail, true
	case "other":
		return TypeOther, true
	}
	return TypeText, false
}

// Origin records which extraction path produced a candidate.
type Origin string

const (
	OriginPattern         Origin = "pattern"
	OriginExternalService Origin = "external_service"
)

// PlaceholderCandidate is a text span suspected of being a per-instance field.
type PlaceholderCandidate struct {
	Text       string           `json:"text"`
	Variable   string           `json:"inferredVariableName"`
	Confidence int              `json:"confidence"`
	Context    string           `json:"context"`
	Type       PlaceholderType  `json:"type"`
	Origin     Origin           `json:"sourceOrigin"`
	Normalized *NormalizedValue `json:"normalizedValue,omitempty"`
}

// NormalizedKind says what a NormalizedValue holds.
type NormalizedKind string

const (
	NormalizedDate     NormalizedKind = "date"
	NormalizedCurrency NormalizedKind = "currency"
	NormalizedPercent  NormalizedKind = "percent"
	NormalizedNumber   NormalizedKind = "number"
	// NormalizedLiteral marks a value whose literal text could not be parsed
	// and was preserved as is.
	NormalizedLiteral NormalizedKind = "literal"
)

// NormalizedValue is the typed projection of a placeholder's literal text.
// Dates and literals use String; numeric kinds use Number.
type NormalizedValue struct {
	Kind   NormalizedKind `json:"kind"`
	String *string        `json:"string,omitempty"`
	Number *float64       `json:"number,omitempty"`
}

// Parsed reports whether the value is a real typed projection rather than a
// preserved literal.
func (v *NormalizedValue) Parsed() bool {
	return v != nil && v.Kind != NormalizedLiteral
}

// ClampConfidence clamps c into [0,100].
func ClampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

var variableRe = regexp.MustCompile(`^[a-z0-9_]+$`)

// ValidVariable reports whether name is a usable variable name.
func ValidVariable(name string) bool {
	return variableRe.MatchString(name)
}

package placeholder

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tsawler/docstruct/model"
)

// ErrMalformedResponse is returned when the service output is not a JSON
// object carrying a placeholders array.
var ErrMalformedResponse = errors.New("malformed service response")

// DefaultServiceConfidence is used for service entries that carry no
// confidence of their own.
const DefaultServiceConfidence = 80

// SchemaHint describes the JSON shape the service is asked to produce.
const SchemaHint = `{"placeholders":[{"text":"exact text from the document","variable":"snake_case_name",` +
	`"confidence":0,"context":"surrounding text","type":"text|date|number|currency|percent|email|other"}]}`

// ParseResponse validates raw service output. The first JSON object found in
// raw is used, so answers wrapped in prose or code fences are accepted.
// Entries with empty text are skipped; structural problems fail the whole
// response.
func ParseResponse(raw string) ([]model.PlaceholderCandidate, error) {
	obj, ok := firstObject(raw)
	if !ok || !gjson.Valid(obj) {
		return nil, fmt.Errorf("%w: no JSON object", ErrMalformedResponse)
	}

	list := gjson.Get(obj, "placeholders")
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: missing placeholders array", ErrMalformedResponse)
	}

	var out []model.PlaceholderCandidate
	var err error
	counters := make(map[model.PlaceholderType]int)
	list.ForEach(func(i, entry gjson.Result) bool {
		if !entry.IsObject() {
			err = fmt.Errorf("%w: placeholder %d is not an object", ErrMalformedResponse, i.Int())
			return false
		}

		text := strings.TrimSpace(entry.Get("text").String())
		if text == "" {
			return true
		}

		typ, _ := model.ParsePlaceholderType(entry.Get("type").String())

		variable := Slugify(entry.Get("variable").String())
		if variable == "" {
			variable = Slugify(text)
		}
		if variable == "" {
			counters[typ]++
			variable = string(typ) + "_" + strconv.Itoa(counters[typ])
		}

		out = append(out, model.PlaceholderCandidate{
			Text:       text,
			Variable:   variable,
			Confidence: confidence(entry.Get("confidence")),
			Context:    strings.TrimSpace(entry.Get("context").String()),
			Type:       typ,
			Origin:     model.OriginExternalService,
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// confidence reads a percentage. Fractions such as 0.9 or 1.0 are scaled to
// percent.
func confidence(v gjson.Result) int {
	if !v.Exists() || v.Type == gjson.Null {
		return DefaultServiceConfidence
	}
	f := v.Float()
	if f > 0 && (f < 1 || (f == 1 && strings.Contains(v.Raw, "."))) {
		f *= 100
	}
	return model.ClampConfidence(int(math.Round(f)))
}

// firstObject returns the first balanced {...} span of s.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

package value

import (
	"regexp"
	"strconv"
	"strings"
)

// numericRun matches the first number in a text, with its separators.
var numericRun = regexp.MustCompile(`-?\d(?:[\d.,]*\d)?`)

// Amount extracts the first numeric run of text for currency and percent
// values. Unambiguous separators are resolved like ParseNumber; otherwise
// the comma is read as the decimal point.
func Amount(text string) (float64, bool) {
	run := numericRun.FindString(text)
	if run == "" {
		return 0, false
	}
	if f, ambiguous, ok := parseRun(run); ok && !ambiguous {
		return f, true
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(run, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseNumber parses a number written with either separator convention:
// "1.234,56" and "1,234.56" are 1234.56, "12,5" is 12.5. A lone separator
// followed by exactly three digits ("1.234") is ambiguous and rejected, as
// is any text that is not a single number.
func ParseNumber(text string) (float64, bool) {
	run := strings.TrimSpace(text)
	if run == "" || numericRun.FindString(run) != run {
		return 0, false
	}
	f, ambiguous, ok := parseRun(run)
	if !ok || ambiguous {
		return 0, false
	}
	return f, true
}

// parseRun interprets a numeric run. ambiguous is set when the run could
// be read either with a thousands separator or with a decimal point.
func parseRun(run string) (f float64, ambiguous, ok bool) {
	neg := strings.HasPrefix(run, "-")
	run = strings.TrimPrefix(run, "-")

	dots := strings.Count(run, ".")
	commas := strings.Count(run, ",")

	var intPart, frac string
	switch {
	case dots == 0 && commas == 0:
		intPart = run

	case dots > 0 && commas > 0:
		// The separator that appears last is the decimal point.
		dec, thousands := ",", "."
		if strings.LastIndex(run, ".") > strings.LastIndex(run, ",") {
			dec, thousands = ".", ","
		}
		if strings.Count(run, dec) != 1 {
			return 0, false, false
		}
		intPart, frac, _ = strings.Cut(run, dec)
		if !groupedThousands(intPart, thousands) {
			return 0, false, false
		}
		intPart = strings.ReplaceAll(intPart, thousands, "")

	default:
		sep := "."
		if commas > 0 {
			sep = ","
		}
		parts := strings.Split(run, sep)
		if len(parts) > 2 {
			if !groupedThousands(run, sep) {
				return 0, false, false
			}
			intPart = strings.ReplaceAll(run, sep, "")
			break
		}
		intPart, frac = parts[0], parts[1]
		ambiguous = len(frac) == 3 && intPart != "0" && intPart != ""
	}

	s := intPart
	if frac != "" {
		s += "." + frac
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, false
	}
	if neg {
		f = -f
	}
	return f, ambiguous, true
}

// groupedThousands reports whether s is digits grouped by sep in threes
// ("1.234.567"), the first group having one to three digits.
func groupedThousands(s, sep string) bool {
	groups := strings.Split(s, sep)
	for i, g := range groups {
		if g == "" || len(g) > 3 || (i > 0 && len(g) != 3) {
			return false
		}
	}
	return true
}

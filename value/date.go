package value

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// months maps folded month names (Catalan, Spanish, English) and common
// abbreviations to month numbers.
var months = map[string]time.Month{
	// Catalan
	"gener": 1, "febrer": 2, "marc": 3, "abril": 4, "maig": 5, "juny": 6,
	"juliol": 7, "agost": 8, "setembre": 9, "octubre": 10, "novembre": 11, "desembre": 12,
	// Spanish
	"enero": 1, "febrero": 2, "marzo": 3, "mayo": 5, "junio": 6, "julio": 7,
	"agosto": 8, "septiembre": 9, "setiembre": 9, "noviembre": 11, "diciembre": 12,
	// English
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7, "aug": 8,
	"sep": 9, "sept": 9, "oct": 10, "nov": 11, "dec": 12,
}

var (
	// numericDate matches dd/mm/yyyy with "/", "-" or "." separators.
	numericDate = regexp.MustCompile(`\b(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4}|\d{2})\b`)

	// dayMonthYear matches "15 de gener de 2025", "1 d'agost de 2025",
	// "5 January 2025".
	dayMonthYear = regexp.MustCompile(`(?i)\b(\d{1,2})(?:\s+de|\s+del)?\s+(?:d['’]\s*)?(\p{L}+)\.?,?(?:\s+de|\s+del)?\s+(\d{4})\b`)

	// monthDayYear matches "January 5, 2025".
	monthDayYear = regexp.MustCompile(`(?i)\b(\p{L}+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
)

// ParseDate finds the first date in text and returns it as yyyy-mm-dd.
// Numeric dates are read day first; two-digit years fall in the 2000s.
func ParseDate(text string) (string, bool) {
	if m := numericDate.FindStringSubmatch(text); m != nil {
		if d, ok := buildDate(m[3], m[2], m[1]); ok {
			return d, true
		}
	}

	folded := fold(text)
	if m := dayMonthYear.FindStringSubmatch(folded); m != nil {
		if month, ok := months[strings.ToLower(m[2])]; ok {
			if d, ok := buildDate(m[3], strconv.Itoa(int(month)), m[1]); ok {
				return d, true
			}
		}
	}
	if m := monthDayYear.FindStringSubmatch(folded); m != nil {
		if month, ok := months[strings.ToLower(m[1])]; ok {
			if d, ok := buildDate(m[3], strconv.Itoa(int(month)), m[2]); ok {
				return d, true
			}
		}
	}
	return "", false
}

// buildDate validates the parts of a date and formats it.
func buildDate(year, month, day string) (string, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	if len(year) == 2 {
		y += 2000
	}
	if m < 1 || m > 12 || d < 1 {
		return "", false
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d), true
}

// fold strips diacritics so that "març" matches "marc".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

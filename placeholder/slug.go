package placeholder

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxVariableLen = 64

// Slugify turns free text into a variable name matching [a-z0-9_]+.
// Accents are stripped ("Nom del client" -> "nom_del_client",
// "Població" -> "poblacio"). It returns "" when nothing usable remains.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var sb strings.Builder
	underscore := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			underscore = false
		default:
			if sb.Len() > 0 && !underscore {
				sb.WriteByte('_')
				underscore = true
			}
		}
		if sb.Len() >= maxVariableLen {
			break
		}
	}
	return strings.Trim(sb.String(), "_")
}

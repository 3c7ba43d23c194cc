package classify

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/docstruct/model"
)

// signaturePattern matches closing formulas and signature lines at the
// start of any line, in English, Catalan and Spanish.
var signaturePattern = regexp.MustCompile(`(?im)^\s*(?:` +
	`signed\s+by|signat\s+per|signada\s+per|firmado\s+por|firmada\s+por|` +
	`(?:signature|signatura|firma|signed|signat|firmado|firmat)\s*:|` +
	`(?:yours\s+)?(?:sincerely|faithfully|truly)\b|` +
	`(?:kind|best|warm)\s+regards|` +
	`atentament|cordialment|atentamente|cordialmente|` +
	`salutacions\s+cordials|un\s+cordial\s+saludo|` +
	`in\s+witness\s+whereof|en\s+prova\s+de\s+conformitat|en\s+prueba\s+de\s+conformidad)`)

// Section numbering. Each pattern matches one depth only.
var (
	numbered1       = regexp.MustCompile(`^\s*\d+[.)]\s+\S`)
	numbered2       = regexp.MustCompile(`^\s*\d+\.\d+\.?\s+\S`)
	numbered3       = regexp.MustCompile(`^\s*\d+\.\d+\.\d+\.?\s+\S`)
	romanSection    = regexp.MustCompile(`^\s*[IVX]+[.)]\s+\S`)
	letteredSection = regexp.MustCompile(`^\s*[A-Za-z][.)]\s+\S`)
)

// hasSectionMarker reports whether text opens with a section number or a
// roman or lettered marker.
func hasSectionMarker(text string) bool {
	return numbered1.MatchString(text) || numbered2.MatchString(text) || numbered3.MatchString(text) ||
		romanSection.MatchString(text) || letteredSection.MatchString(text)
}

// listMarker matches bullet glyphs and short item markers.
var listMarker = regexp.MustCompile(`^\s*(?:[•◦▪▫●○■□‣⁃∙·\-–—*+]|\(?(?:\d{1,3}|[a-z])[.)])\s+`)

// sectionKeywords are words that open well-known document sections,
// compared without accents.
var sectionKeywords = map[string]bool{
	// English
	"introduction": true, "conclusion": true, "conclusions": true, "summary": true,
	"abstract": true, "background": true, "objective": true, "objectives": true,
	"scope": true, "definitions": true, "annex": true, "appendix": true,
	"references": true, "recitals": true, "whereas": true, "terms": true,
	// Catalan
	"introduccio": true, "conclusio": true, "resum": true,
	"antecedents": true, "objecte": true, "objectiu": true, "objectius": true,
	"abast": true, "definicions": true, "annexos": true, "clausules": true,
	"pactes": true, "manifesten": true, "exposen": true, "acorden": true,
	"estipulacions": true, "referencies": true,
	// Spanish
	"introduccion": true, "conclusiones": true, "resumen": true,
	"antecedentes": true, "objeto": true, "objetivo": true, "objetivos": true,
	"alcance": true, "definiciones": true, "anexo": true, "anexos": true,
	"clausulas": true, "exponen": true, "acuerdan": true, "manifiestan": true,
	"estipulaciones": true, "referencias": true,
}

// connectives may stay lower-case inside a title-case line.
var connectives = map[string]bool{
	"a": true, "an": true, "and": true, "of": true, "the": true, "for": true, "to": true, "in": true, "on": true,
	"i": true, "de": true, "del": true, "dels": true, "la": true, "les": true, "el": true, "els": true,
	"y": true, "e": true, "o": true, "u": true, "los": true, "las": true, "en": true, "per": true,
	"para": true, "por": true, "amb": true, "con": true, "d'": true, "l'": true,
}

// startsWithSectionKeyword reports whether the first word of text is a
// section keyword.
func startsWithSectionKeyword(text string) bool {
	words := strings.Fields(text)
	if len(words) == 0 {
		return false
	}
	word := strings.TrimRightFunc(words[0], func(r rune) bool { return !unicode.IsLetter(r) })
	return sectionKeywords[fold(word)]
}

// titleNames and headingPrefixes recognise localized style names after
// folding ("Títol 1" is a heading style, "Títol" the title style).
var (
	titleNames      = []string{"title", "titol", "titulo", "titre"}
	subtitleNames   = []string{"subtitle", "subtitol", "subtitulo"}
	headingPrefixes = []string{"heading", "titol", "titulo", "encabezado", "encapcalament", "capcalera", "h"}
)

// styleKind maps a style name to the element kind it names, or "" when the
// name carries no structural meaning.
func styleKind(name string) model.ElementKind {
	key := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(fold(name))
	if key == "" {
		return ""
	}

	for _, t := range titleNames {
		if key == t {
			return model.KindTitle
		}
	}
	for _, s := range subtitleNames {
		if key == s {
			return model.KindHeading2
		}
	}
	for _, p := range headingPrefixes {
		rest, ok := strings.CutPrefix(key, p)
		if !ok {
			continue
		}
		switch rest {
		case "1":
			return model.KindHeading1
		case "2":
			return model.KindHeading2
		case "3":
			return model.KindHeading3
		case "":
			if p != "h" {
				return model.KindHeading1
			}
		}
	}
	return ""
}

// fold lower-cases s and strips diacritics.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

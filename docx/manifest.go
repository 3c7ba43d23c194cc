package docx

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tsawler/docstruct/model"
)

// ManifestVersion is the version written into every style manifest.
const ManifestVersion = "1.0"

// Vocabulary lists the semantic HTML elements a Word style can map to,
// with the Word style names that typically produce them.
var Vocabulary = map[string]string{
	"h1":             "Heading 1, Title, Heading1Char",
	"h2":             "Heading 2, Subtitle, Heading2Char",
	"h3":             "Heading 3, Heading3Char",
	"p":              "Normal, BodyText, DefaultParagraphFont",
	"ul.Bulleted":    "List Bullet, ListBullet, BulletList",
	"ol.Numbered":    "List Number, ListNumber, NumberedList",
	"table.StdTable": "Table Grid, TableGrid, StandardTable",
	"blockquote":     "Quote, BlockText, IntenseQuote",
}

// Manifest maps the styles of a document onto semantic HTML elements.
type Manifest struct {
	Version string `json:"version"`
	// Styles maps an HTML element to the Word style name that produces it.
	Styles map[string]string `json:"styles"`
	// Fallbacks maps unrecognised style names to the element used instead.
	Fallbacks  map[string]string `json:"fallbacks"`
	Warnings   []string          `json:"warnings"`
	Vocabulary []string          `json:"vocabulary"`
	Statistics ManifestStats     `json:"statistics"`
}

// ManifestStats summarises a manifest.
type ManifestStats struct {
	TotalStyles    int `json:"total_styles_found"`
	MappedStyles   int `json:"mapped_styles"`
	FallbackStyles int `json:"fallback_styles"`
}

// essentialMappings are added to every manifest that lacks them.
var essentialMappings = []struct{ element, style string }{
	{"h1", "Heading 1"},
	{"h2", "Heading 2"},
	{"p", "Normal"},
	{"table.StdTable", "Table Grid"},
}

// MapStyle maps a Word style name to a semantic HTML element, optionally
// with a class ("ul.Bulleted"). It reports false for unrecognised styles.
func MapStyle(name, styleType string) (string, bool) {
	lower := strings.ToLower(name)
	if styleType == "table" {
		return "table.StdTable", true
	}

	switch {
	case strings.Contains(lower, "heading 1") || lower == "title":
		return "h1", true
	case strings.Contains(lower, "heading 2") || strings.Contains(lower, "subtitle"):
		return "h2", true
	case strings.Contains(lower, "heading 3"):
		return "h3", true
	case strings.Contains(lower, "body") || strings.Contains(lower, "normal"):
		return "p", true
	case strings.Contains(lower, "bullet"):
		return "ul.Bulleted", true
	case strings.Contains(lower, "list number") || strings.Contains(lower, "numbered"):
		return "ol.Numbered", true
	case strings.Contains(lower, "table"):
		return "table.StdTable", true
	case strings.Contains(lower, "quote") || strings.Contains(lower, "block"):
		return "blockquote", true
	}

	if level, ok := headingLevelFromName(name); ok && level <= 3 {
		return fmt.Sprintf("h%d", level), true
	}
	return "", false
}

// fallbackElement is the element used for unrecognised styles.
func fallbackElement(styleType string) string {
	if styleType == "table" {
		return "table.StdTable"
	}
	return "p"
}

// BuildManifest builds the style manifest for a set of resolved styles.
// Only paragraph and table styles take part.
func BuildManifest(styles []*ResolvedStyle) *Manifest {
	m := &Manifest{
		Version:   ManifestVersion,
		Styles:    make(map[string]string),
		Fallbacks: make(map[string]string),
	}
	m.Statistics.TotalStyles = len(styles)

	for _, s := range styles {
		if s.Type != "paragraph" && s.Type != "table" {
			continue
		}
		name := s.Name
		if name == "" {
			name = s.ID
		}
		if element, ok := MapStyle(name, s.Type); ok {
			m.Styles[element] = name
			continue
		}
		element := fallbackElement(s.Type)
		m.Fallbacks[name] = element
		m.Warnings = append(m.Warnings, fmt.Sprintf("Unknown style '%s' mapped to '%s'", name, element))
	}

	for _, e := range essentialMappings {
		if _, ok := m.Styles[e.element]; !ok {
			m.Styles[e.element] = e.style
		}
	}

	for element := range Vocabulary {
		m.Vocabulary = append(m.Vocabulary, element)
	}
	sort.Strings(m.Vocabulary)

	m.Statistics.MappedStyles = len(m.Styles)
	m.Statistics.FallbackStyles = len(m.Fallbacks)
	return m
}

// Manifest builds the style manifest of the document's styles part.
func (d *Document) Manifest() *Manifest {
	return BuildManifest(d.styles.Styles())
}

// ElementFor returns the bare HTML element (without class) for a style
// name, or "p" for unrecognised styles.
func ElementFor(styleName, styleType string) string {
	element, ok := MapStyle(styleName, styleType)
	if !ok {
		element = fallbackElement(styleType)
	}
	tag, _, _ := strings.Cut(element, ".")
	return tag
}

// Confidence of style-driven mappings.
const (
	styleMappingConfidence    = 0.95
	fallbackMappingConfidence = 0.50
)

// StyleMappings returns one mapping decision per distinct style used by
// the document's blocks, in order of first use.
func (d *Document) StyleMappings() []model.StyleMapping {
	var out []model.StyleMapping
	seen := make(map[string]bool)

	for _, b := range d.Blocks {
		name := b.Node.StyleName
		styleType := "paragraph"
		if b.Node.Kind == model.NodeTable {
			styleType = "table"
			name = d.styles.Name(b.StyleID)
		}
		if name == "" || seen[styleType+"/"+name] {
			continue
		}
		seen[styleType+"/"+name] = true

		if element, ok := MapStyle(name, styleType); ok {
			out = append(out, model.StyleMapping{
				OriginalStyle: name,
				Tag:           element,
				Confidence:    styleMappingConfidence,
				Reason:        "word style name",
			})
			continue
		}
		out = append(out, model.StyleMapping{
			OriginalStyle: name,
			Tag:           fallbackElement(styleType),
			Confidence:    fallbackMappingConfidence,
			Reason:        "unknown word style, default element",
		})
	}
	return out
}

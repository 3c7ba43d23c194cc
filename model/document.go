package model

import "strings"

// Section is derived from one heading element. Sections are flat; Level is
// informational only.
type Section struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Level int    `json:"level"`
	// Body is the Markdown rendering of the elements that follow the heading
	// up to the next heading.
	Body string `json:"markdownOrHtmlBody"`
}

// Signature is the closing block of a document.
type Signature struct {
	Text  string   `json:"text"`
	Lines []string `json:"lines"`
	// Index is the position of the signature element in Elements.
	Index int `json:"index"`
}

// StyleMapping records one presentational-to-semantic decision made while
// re-tagging markup.
type StyleMapping struct {
	OriginalStyle string  `json:"originalStyle"`
	Tag           string  `json:"tag"`
	Confidence    float64 `json:"confidence"`
	Reason        string  `json:"reason"`
}

// ElementCounts summarises what the run found.
type ElementCounts struct {
	Sections   int `json:"sections"`
	Tables     int `json:"tables"`
	Signatures int `json:"signatures"`
	Paragraphs int `json:"paragraphs"`
}

// Extraction methods reported in Diagnostics.
const (
	MethodPattern        = "pattern"
	MethodExternalMerged = "external_service+pattern"
)

// Diagnostics is the run metadata attached to a DocumentModel.
type Diagnostics struct {
	RunID            string         `json:"runId"`
	Dialect          Dialect        `json:"dialect"`
	ExtractionMethod string         `json:"extractionMethod"`
	ProcessingTimeMs int64          `json:"processingTimeMs"`
	ElementsFound    ElementCounts  `json:"elementsFound"`
	Warnings         []string       `json:"warnings"`
	RemovedElements  []string       `json:"removedElements,omitempty"`
	StyleMappings    []StyleMapping `json:"styleMappings,omitempty"`
	ServiceError     string         `json:"serviceError,omitempty"`
}

// DocumentModel is the normalized result of one pipeline run.
type DocumentModel struct {
	Elements     []Element              `json:"elements"`
	Sections     []Section              `json:"sections"`
	Tables       []Table                `json:"tables"`
	Placeholders []PlaceholderCandidate `json:"placeholders"`
	Signature    *Signature             `json:"signature,omitempty"`
	Confidence   int                    `json:"confidence"`
	// HTML is the semantic HTML rendering of the document.
	HTML     string      `json:"html,omitempty"`
	Metadata Diagnostics `json:"metadata"`
}

// ElementsOfKind returns the elements with the given kind, in order.
func (d *DocumentModel) ElementsOfKind(kind ElementKind) []Element {
	var out []Element
	for _, e := range d.Elements {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Title returns the text of the first title element, or "".
func (d *DocumentModel) Title() string {
	for _, e := range d.Elements {
		if e.Kind == KindTitle {
			return e.Text
		}
	}
	return ""
}

// PlainText returns the text of all elements joined by newlines. Table rows
// are rendered as tab-separated lines.
func (d *DocumentModel) PlainText() string {
	return ElementsText(d.Elements)
}

// ElementsText joins element text in reading order.
func ElementsText(elements []Element) string {
	var sb strings.Builder
	for _, e := range elements {
		if e.Kind == KindTable {
			for _, row := range e.Rows {
				sb.WriteString(strings.Join(row, "\t"))
				sb.WriteString("\n")
			}
			continue
		}
		if e.Text == "" {
			continue
		}
		sb.WriteString(e.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

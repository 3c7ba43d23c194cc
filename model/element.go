package model

// ElementKind is the structural type assigned to an element.
type ElementKind string

const (
	KindTitle     ElementKind = "title"
	KindHeading1  ElementKind = "heading1"
	KindHeading2  ElementKind = "heading2"
	KindHeading3  ElementKind = "heading3"
	KindParagraph ElementKind = "paragraph"
	KindList      ElementKind = "list"
	KindTable     ElementKind = "table"
	KindSignature ElementKind = "signature"
)

// String returns the string representation of the kind.
func (k ElementKind) String() string {
	return string(k)
}

// IsHeading reports whether the kind opens a section.
func (k ElementKind) IsHeading() bool {
	switch k {
	case KindTitle, KindHeading1, KindHeading2, KindHeading3:
		return true
	}
	return false
}

// Level returns the heading level of the kind (1-3), or 0 for non-headings.
func (k ElementKind) Level() int {
	switch k {
	case KindTitle, KindHeading1:
		return 1
	case KindHeading2:
		return 2
	case KindHeading3:
		return 3
	}
	return 0
}

// HTMLTag returns the HTML tag used when rendering an element of this kind.
func (k ElementKind) HTMLTag() string {
	switch k {
	case KindTitle, KindHeading1:
		return "h1"
	case KindHeading2:
		return "h2"
	case KindHeading3:
		return "h3"
	case KindList:
		return "li"
	case KindTable:
		return "table"
	default:
		return "p"
	}
}

// Formatting is the derived visual formatting of a node. The zero value means
// "no formatting observed"; a nil FontSizePt means the size is unknown.
type Formatting struct {
	Bold       bool     `json:"bold"`
	Italic     bool     `json:"italic"`
	Underline  bool     `json:"underline"`
	Centered   bool     `json:"centered"`
	FontSizePt *float64 `json:"fontSizePt,omitempty"`
}

// FontSize returns the font size in points, or 0 when unknown.
func (f Formatting) FontSize() float64 {
	if f.FontSizePt == nil {
		return 0
	}
	return *f.FontSizePt
}

// WithFontSize returns a copy of f with the given font size.
func (f Formatting) WithFontSize(pt float64) Formatting {
	if pt <= 0 {
		f.FontSizePt = nil
		return f
	}
	f.FontSizePt = &pt
	return f
}

// NodeKind distinguishes paragraph-like nodes from tables.
type NodeKind string

const (
	NodeParagraph NodeKind = "paragraph"
	NodeTable     NodeKind = "table"
)

// Node is one paragraph or table as read from either dialect, before
// classification.
type Node struct {
	Kind       NodeKind
	Text       string
	StyleName  string
	Formatting Formatting

	// ListMarker is set when the source marks the paragraph as a list item
	// (numPr in WordprocessingML, <li> in HTML).
	ListMarker bool

	// Rows holds cell text for table nodes.
	Rows [][]string

	// HeaderRow is set when the first row of a table carries bold styling.
	HeaderRow bool
}

// Element is a classified structural unit of a document.
type Element struct {
	Kind       ElementKind `json:"kind"`
	Text       string      `json:"text"`
	StyleName  *string     `json:"styleName,omitempty"`
	Formatting Formatting  `json:"formatting"`
	Level      *int        `json:"level,omitempty"`
	Rows       [][]string  `json:"rows,omitempty"`

	// Rule names the classifier rule that produced Kind.
	Rule string `json:"rule,omitempty"`
	// Confidence is the classifier confidence (0-1) for Kind.
	Confidence float64 `json:"confidence"`
}

// IsEmpty reports whether the element carries no text and no rows.
func (e Element) IsEmpty() bool {
	return e.Text == "" && len(e.Rows) == 0
}

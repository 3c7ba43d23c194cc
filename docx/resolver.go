package docx

import (
	"strconv"
	"strings"
)

// ResolvedStyle contains the fully resolved properties for a style.
type ResolvedStyle struct {
	// Identity
	ID   string
	Name string
	Type string // paragraph, character, table

	// Heading info
	IsHeading    bool
	HeadingLevel int // 1-9, 0 if not a heading

	// List info: the style itself carries numbering (e.g. "List Bullet").
	IsList bool
	NumID  string

	// Paragraph properties
	Alignment string // left, center, right, both (justify)

	// Run/character properties. FontSize is 0 when no size is declared
	// anywhere in the chain or the document defaults.
	FontSize  float64 // points
	Bold      bool
	Italic    bool
	Underline bool
}

// StyleResolver resolves styles with inheritance support.
type StyleResolver struct {
	styles      map[string]*styleDefXML
	order       []string
	resolved    map[string]*ResolvedStyle
	defaultSize float64
	defaultPara string
}

// NewStyleResolver creates a new style resolver from parsed styles.
// A nil styles part yields a resolver that only knows built-in heading ids.
func NewStyleResolver(styles *stylesXML) *StyleResolver {
	sr := &StyleResolver{
		styles:   make(map[string]*styleDefXML),
		resolved: make(map[string]*ResolvedStyle),
	}

	if styles == nil {
		return sr
	}

	for i := range styles.Styles {
		style := &styles.Styles[i]
		if _, dup := sr.styles[style.StyleID]; !dup {
			sr.order = append(sr.order, style.StyleID)
		}
		sr.styles[style.StyleID] = style
		if style.Type == "paragraph" && style.Default == "1" {
			sr.defaultPara = style.StyleID
		}
	}

	if size := parseHalfPoints(styles.DocDefaults.RPrDefault.RPr.FontSize.Val); size > 0 {
		sr.defaultSize = size
	}

	return sr
}

// DefaultParagraphStyle returns the id of the default paragraph style,
// usually "Normal", or "" when none is declared.
func (sr *StyleResolver) DefaultParagraphStyle() string {
	return sr.defaultPara
}

// Resolve returns the fully resolved style for the given style ID.
// An empty id resolves the default paragraph style. Unknown ids resolve
// to the document defaults with built-in heading detection applied.
func (sr *StyleResolver) Resolve(styleID string) *ResolvedStyle {
	if styleID == "" {
		if sr.defaultPara == "" {
			return sr.defaultStyle()
		}
		styleID = sr.defaultPara
	}

	if resolved, ok := sr.resolved[styleID]; ok {
		return resolved
	}

	resolved := sr.defaultStyle()
	resolved.ID = styleID

	styleDef, ok := sr.styles[styleID]
	if !ok {
		resolved.IsHeading, resolved.HeadingLevel = detectBuiltInHeading(styleID)
		sr.resolved[styleID] = resolved
		return resolved
	}

	resolved.Name = styleDef.Name.Val
	resolved.Type = styleDef.Type

	for _, sid := range sr.buildInheritanceChain(styleID) {
		if def, ok := sr.styles[sid]; ok {
			sr.applyStyleDef(resolved, def)
		}
	}

	resolved.IsHeading, resolved.HeadingLevel = sr.detectHeading(styleDef)

	sr.resolved[styleID] = resolved
	return resolved
}

// Name returns the display name of a style id, falling back to the id.
func (sr *StyleResolver) Name(styleID string) string {
	if def, ok := sr.styles[styleID]; ok && def.Name.Val != "" {
		return def.Name.Val
	}
	return styleID
}

// Styles returns every style definition in declaration order.
func (sr *StyleResolver) Styles() []*ResolvedStyle {
	out := make([]*ResolvedStyle, 0, len(sr.order))
	for _, id := range sr.order {
		out = append(out, sr.Resolve(id))
	}
	return out
}

// defaultStyle returns a style with default values.
func (sr *StyleResolver) defaultStyle() *ResolvedStyle {
	return &ResolvedStyle{
		FontSize:  sr.defaultSize,
		Alignment: "left",
	}
}

// buildInheritanceChain returns style IDs from base to derived.
func (sr *StyleResolver) buildInheritanceChain(styleID string) []string {
	var chain []string
	visited := make(map[string]bool)

	current := styleID
	for current != "" && !visited[current] {
		visited[current] = true
		chain = append([]string{current}, chain...) // Prepend

		if def, ok := sr.styles[current]; ok {
			current = def.BasedOn.Val
		} else {
			break
		}
	}

	return chain
}

// applyStyleDef applies a style definition's properties to a resolved style.
func (sr *StyleResolver) applyStyleDef(resolved *ResolvedStyle, def *styleDefXML) {
	ppr := def.PPr
	if ppr.Justification.Val != "" {
		resolved.Alignment = ppr.Justification.Val
	}
	if id := ppr.NumPr.NumID.Val; id != "" {
		resolved.IsList = id != "0"
		resolved.NumID = id
	}

	applyRunProps(&resolved.FontSize, &resolved.Bold, &resolved.Italic, &resolved.Underline, def.RPr)
}

// applyRunProps overlays the properties set in rpr.
func applyRunProps(size *float64, bold, italic, underline *bool, rpr runPropsXML) {
	if s := parseHalfPoints(rpr.FontSize.Val); s > 0 {
		*size = s
	}
	if rpr.Bold.Set() {
		*bold = rpr.Bold.On()
	}
	if rpr.Italic.Set() {
		*italic = rpr.Italic.On()
	}
	if rpr.Underline.Set() {
		*underline = rpr.Underline.On()
	}
}

// detectHeading determines if a style represents a heading.
func (sr *StyleResolver) detectHeading(def *styleDefXML) (bool, int) {
	if isHeading, level := detectBuiltInHeading(def.StyleID); isHeading {
		return true, level
	}

	if level, ok := headingLevelFromName(def.Name.Val); ok {
		return true, level
	}

	// Outline level, possibly inherited through basedOn.
	for _, sid := range sr.buildInheritanceChain(def.StyleID) {
		d, ok := sr.styles[sid]
		if !ok || d.PPr.OutlineLvl.Val == "" {
			continue
		}
		if level := parseOutlineLevel(d.PPr.OutlineLvl.Val); level >= 0 {
			return true, level + 1 // OutlineLvl is 0-based
		}
	}

	return false, 0
}

// detectBuiltInHeading checks for Word's built-in heading style IDs.
func detectBuiltInHeading(styleID string) (bool, int) {
	id := strings.ToLower(styleID)

	headingMap := map[string]int{
		"heading1": 1, "heading2": 2, "heading3": 3,
		"heading4": 4, "heading5": 5, "heading6": 6,
		"heading7": 7, "heading8": 8, "heading9": 9,
		"title": 1, "subtitle": 2,
	}

	if level, ok := headingMap[id]; ok {
		return true, level
	}

	return false, 0
}

// headingPrefixes are heading style names in the languages seen in
// practice. Word writes built-in names in English, but documents created
// from localized templates carry custom styles such as "Títol 1".
var headingPrefixes = []string{"heading", "títol", "titol", "título", "titulo", "encabezado", "encapçalament"}

// headingLevelFromName extracts a heading level from a style name such as
// "heading 2" or "Títol 1".
func headingLevelFromName(name string) (int, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, prefix := range headingPrefixes {
		rest, ok := strings.CutPrefix(lower, prefix)
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return 0, false
		}
		if n, err := strconv.Atoi(rest); err == nil && n >= 1 && n <= 9 {
			return n, true
		}
	}
	return 0, false
}

// parseHalfPoints parses a size in half-points to points.
// Word uses half-points for font sizes (e.g., "24" = 12pt).
func parseHalfPoints(s string) float64 {
	if s == "" {
		return 0
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return val / 2
}

// parseOutlineLevel parses an outline level string to an integer.
func parseOutlineLevel(s string) int {
	level, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || level < 0 || level > 8 {
		return -1
	}
	return level
}

// ResolvedRun contains resolved properties for a text run.
type ResolvedRun struct {
	Text      string
	FontSize  float64
	Bold      bool
	Italic    bool
	Underline bool
}

// ResolveRun resolves run properties, combining the paragraph style, the
// run's character style and direct formatting, in that order.
func (sr *StyleResolver) ResolveRun(paragraphStyle string, run runXML) ResolvedRun {
	base := sr.Resolve(paragraphStyle)

	resolved := ResolvedRun{
		Text:      run.Text(),
		FontSize:  base.FontSize,
		Bold:      base.Bold,
		Italic:    base.Italic,
		Underline: base.Underline,
	}

	if cs := run.Properties.Style.Val; cs != "" {
		for _, sid := range sr.buildInheritanceChain(cs) {
			if def, ok := sr.styles[sid]; ok {
				applyRunProps(&resolved.FontSize, &resolved.Bold, &resolved.Italic, &resolved.Underline, def.RPr)
			}
		}
	}

	applyRunProps(&resolved.FontSize, &resolved.Bold, &resolved.Italic, &resolved.Underline, run.Properties)
	return resolved
}

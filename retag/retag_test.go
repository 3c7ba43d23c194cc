package retag

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tsawler/docstruct/model"
)

const filler = "Aquest paràgraf fa de cos del document i té prou text per dominar el recompte."

// ============================================================================
// Font-size bands
// ============================================================================

func TestRetag_FontSizeBands(t *testing.T) {
	tests := []struct {
		size       string
		wantTag    string
		confidence float64
	}{
		{"30pt", "h1", 0.90},
		{"24pt", "h1", 0.90},
		{"22pt", "h2", 0.85},
		{"18pt", "h3", 0.80},
		{"15pt", "h4", 0.75},
		{"13pt", "h5", 0.70},
		{"10.5pt", "h6", 0.65},
		{"14px", "h6", 0.65},
	}

	for _, tt := range tests {
		t.Run(tt.size, func(t *testing.T) {
			src := `<p style="font-size:` + tt.size + `">Acta</p><p style="font-size:8pt">` + filler + `</p>`
			mc := NewMappingContext()
			res := Retag(src, mc)

			want := `<` + tt.wantTag + ` style="font-size:` + tt.size + `">Acta</` + tt.wantTag + `>`
			if !strings.HasPrefix(res.HTML, want) {
				t.Errorf("HTML = %s, want prefix %s", res.HTML, want)
			}
			if len(res.Mappings) != 1 {
				t.Fatalf("Mappings = %+v, want exactly one", res.Mappings)
			}
			if res.Mappings[0].Tag != tt.wantTag || res.Mappings[0].Confidence != tt.confidence {
				t.Errorf("mapping = %+v", res.Mappings[0])
			}
		})
	}
}

func TestRetag_BodySizeIsNotHeading(t *testing.T) {
	src := `<p style="font-size:11pt">Barcelona, 3 de març</p><p style="font-size:11pt">` + filler + `</p>`
	res := Retag(src, nil)
	if strings.Contains(res.HTML, "<h") {
		t.Errorf("body-sized text must stay a paragraph: %s", res.HTML)
	}
	if len(res.Mappings) != 0 {
		t.Errorf("Mappings = %+v, want none", res.Mappings)
	}
}

func TestRetag_AbsoluteBands(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BodyRelative = false
	res := NewWithConfig(cfg).Retag(`<p style="font-size:11pt">Nota</p>`, nil)
	if res.HTML != `<h6 style="font-size:11pt">Nota</h6>` {
		t.Errorf("HTML = %s", res.HTML)
	}
}

func TestRetag_OutOfBandSize(t *testing.T) {
	res := Retag(`<p style="font-size:40pt">Gran</p><p>`+filler+`</p>`, nil)
	if strings.Contains(res.HTML, "<h") {
		t.Errorf("40pt is outside every band: %s", res.HTML)
	}
}

func TestRetag_SizeFromInlineChild(t *testing.T) {
	src := `<p><span style="font-size:20pt">Capítol primer</span></p><p>` + filler + `</p>`
	res := Retag(src, nil)
	if !strings.HasPrefix(res.HTML, `<h2><span style="font-size:20pt">Capítol primer</span></h2>`) {
		t.Errorf("HTML = %s", res.HTML)
	}
}

// ============================================================================
// Bold fallback
// ============================================================================

func TestRetag_BoldFallback(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    string
		mapping *model.StyleMapping
	}{
		{
			name:    "short bold line",
			src:     `<p><strong>Objecte del contracte</strong></p>`,
			want:    `<h2><strong>Objecte del contracte</strong></h2>`,
			mapping: &model.StyleMapping{OriginalStyle: "p[bold]", Tag: "h2", Confidence: 0.80},
		},
		{
			name:    "longer bold line",
			src:     `<p><b>Condicions generals de la prestació del servei</b></p>`,
			want:    `<h3><strong>Condicions generals de la prestació del servei</strong></h3>`,
			mapping: &model.StyleMapping{OriginalStyle: "p[bold]", Tag: "h3", Confidence: 0.75},
		},
		{
			name: "trailing period",
			src:  `<p><strong>Text curt.</strong></p>`,
			want: `<p><strong>Text curt.</strong></p>`,
		},
		{
			name: "partly bold",
			src:  `<p><strong>Nom:</strong> Joan</p>`,
			want: `<p><strong>Nom:</strong> Joan</p>`,
		},
		{
			name:    "bold via style",
			src:     `<p style="font-weight:700">Annex</p>`,
			want:    `<h2 style="font-weight:700">Annex</h2>`,
			mapping: &model.StyleMapping{OriginalStyle: "p[bold]", Tag: "h2", Confidence: 0.80},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Retag(tt.src, nil)
			if diff := cmp.Diff(tt.want, res.HTML); diff != "" {
				t.Errorf("HTML mismatch (-want +got):\n%s", diff)
			}
			if tt.mapping == nil {
				for _, m := range res.Mappings {
					if strings.HasPrefix(m.Tag, "h") {
						t.Errorf("unexpected heading mapping %+v", m)
					}
				}
				return
			}
			got := res.Mappings[0]
			if got.OriginalStyle != tt.mapping.OriginalStyle || got.Tag != tt.mapping.Tag || got.Confidence != tt.mapping.Confidence {
				t.Errorf("mapping = %+v, want %+v", got, *tt.mapping)
			}
		})
	}
}

func TestRetag_NoHeadingsInsideTablesOrLists(t *testing.T) {
	src := `<table><tr><td><p><strong>Total</strong></p></td></tr></table><ul><li><p><strong>Punt</strong></p></li></ul>`
	res := Retag(src, nil)
	if strings.Contains(res.HTML, "<h2") || strings.Contains(res.HTML, "<h3") {
		t.Errorf("HTML = %s", res.HTML)
	}
}

// ============================================================================
// Inline emphasis
// ============================================================================

func TestRetag_InlineSpans(t *testing.T) {
	src := `<p>Text <span style="font-weight:700;font-style:italic">important</span> i ` +
		`<span style="text-decoration:underline">subratllat</span> <span>pla</span></p>`
	mc := NewMappingContext()
	res := Retag(src, mc)

	want := `<p>Text <strong><em>important</em></strong> i <u>subratllat</u> pla</p>`
	if diff := cmp.Diff(want, res.HTML); diff != "" {
		t.Errorf("HTML mismatch (-want +got):\n%s", diff)
	}

	if mc.Count("strong") != 1 || mc.Count("em") != 1 || mc.Count("u") != 1 {
		t.Errorf("counts: strong=%d em=%d u=%d", mc.Count("strong"), mc.Count("em"), mc.Count("u"))
	}
	for _, m := range res.Mappings {
		if m.Tag == "u" && m.Confidence != 0.70 {
			t.Errorf("underline confidence = %v, want 0.70", m.Confidence)
		}
	}
}

func TestRetag_KeepsSizedSpan(t *testing.T) {
	src := `<p>` + filler + ` <span style="font-size:9pt;font-weight:bold">nota</span></p>`
	res := Retag(src, nil)
	if !strings.Contains(res.HTML, `<strong style="font-size:9pt">nota</strong>`) {
		t.Errorf("HTML = %s", res.HTML)
	}
}

// ============================================================================
// Tables
// ============================================================================

func TestRetag_TableHeaderRow(t *testing.T) {
	src := `<table><tr><td><strong>Nom</strong></td><td><span style="font-weight:bold">Import</span></td><td></td></tr>` +
		`<tr><td>Joan</td><td>10</td><td>x</td></tr></table>`
	mc := NewMappingContext()
	res := Retag(src, mc)

	if !strings.Contains(res.HTML, `<thead><tr><th><strong>Nom</strong></th><th><strong>Import</strong></th><th></th></tr></thead>`) {
		t.Errorf("header row not promoted: %s", res.HTML)
	}
	if !strings.Contains(res.HTML, `<tr><td>Joan</td><td>10</td><td>x</td></tr>`) {
		t.Errorf("data row changed: %s", res.HTML)
	}
	if mc.Count("th") != 1 {
		t.Errorf("th count = %d, want 1", mc.Count("th"))
	}
}

func TestRetag_TableWithoutBoldRow(t *testing.T) {
	src := `<table><tr><td><strong>Nom</strong></td><td>Import</td></tr><tr><td>Joan</td><td>10</td></tr></table>`
	res := Retag(src, nil)
	if strings.Contains(res.HTML, "<th") || strings.Contains(res.HTML, "<thead") {
		t.Errorf("no header row expected: %s", res.HTML)
	}
}

// ============================================================================
// Mapping context
// ============================================================================

func TestRetag_IndependentContexts(t *testing.T) {
	src := `<p><strong>Objecte</strong></p><p>Text <i>cursiva</i></p>`

	a, b := NewMappingContext(), NewMappingContext()
	ra := Retag(src, a)
	rb := Retag(src, b)

	if diff := cmp.Diff(ra, rb); diff != "" {
		t.Errorf("runs differ (-a +b):\n%s", diff)
	}
	if a.Len() != 2 {
		t.Errorf("Len = %d, want 2", a.Len())
	}
	if diff := cmp.Diff([]string{"em", "h2"}, a.Tags()); diff != "" {
		t.Errorf("Tags mismatch (-want +got):\n%s", diff)
	}
}

func TestMappingContext_MeanConfidence(t *testing.T) {
	mc := NewMappingContext()
	if _, ok := mc.MeanConfidence(); ok {
		t.Error("empty context should report no mean")
	}
	mc.Record("a", "h1", 0.9, "")
	mc.Record("b", "u", 0.7, "")
	mean, ok := mc.MeanConfidence()
	if !ok || mean < 0.799 || mean > 0.801 {
		t.Errorf("MeanConfidence = %v, %v", mean, ok)
	}
}

func TestRetag_EmptyInput(t *testing.T) {
	res := Retag("", nil)
	if res.HTML != "" || len(res.Mappings) != 0 {
		t.Errorf("Retag(\"\") = %+v", res)
	}
}

// ============================================================================
// Style parsing
// ============================================================================

func TestParseFontSize(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12pt", 12, true},
		{"16px", 12, true},
		{" 10.5pt ", 10.5, true},
		{"1.2em", 0, false},
		{"large", 0, false},
		{"-3pt", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseFontSize(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseFontSize(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseStyle(t *testing.T) {
	st := parseStyle("font-weight: 700; FONT-STYLE: italic; text-decoration: underline line-through; text-align:center; font-size:14pt !important")
	if !st.bold || !st.italic || !st.underline || !st.centered || st.fontSize != 14 {
		t.Errorf("parseStyle = %+v", st)
	}
	if st := parseStyle("font-weight:normal"); st.bold || !st.notBold {
		t.Errorf("normal weight parsed as %+v", st)
	}
}

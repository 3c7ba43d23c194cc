package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tsawler/docstruct/model"
	"github.com/tsawler/docstruct/placeholder"
)

const contractHTML = `<html><head><style>.c1{color:#000}</style></head><body>
<h1>Contracte de serveis</h1>
<h2>1. Objecte</h2>
<p>El proveïdor {{nom_proveidor}} prestarà els serveis a Joan Garcia, amb correu joan@exemple.cat.</p>
<h2>2. Preu</h2>
<p>L'import total és de 1.200,50 € a pagar abans del 30/08/2025.</p>
<table><tr><th>Concepte</th><th>Import</th></tr><tr><td>Manteniment</td><td>150€</td></tr></table>
<p>Atentament,<br>Joan Garcia<br>Director</p>
</body></html>`

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

const ndaXML = `<w:document ` + wordNS + `><w:body>
<w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>Acord de confidencialitat</w:t></w:r></w:p>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Objecte</w:t></w:r></w:p>
<w:p><w:r><w:t>Les parts es comprometen a no divulgar la informació de [Empresa] abans del 15 de gener de 2025.</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Signat per </w:t></w:r><w:r><w:t>Maria Puig</w:t></w:r></w:p>
</w:body></w:document>`

const ndaStyles = `<w:styles ` + wordNS + `>
<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>
<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/></w:style>
<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/></w:style>
</w:styles>`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(opts ...Option) *Pipeline {
	return New(Config{Logger: quietLogger()}, opts...)
}

func htmlDoc() model.RawDocument {
	return model.RawDocument{Dialect: model.DialectExportedHTML, Markup: contractHTML, Name: "contracte.html"}
}

func kinds(elements []model.Element) []model.ElementKind {
	out := make([]model.ElementKind, len(elements))
	for i, e := range elements {
		out[i] = e.Kind
	}
	return out
}

func texts(cands []model.PlaceholderCandidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Text
	}
	return out
}

// ============================================================================
// Exported HTML
// ============================================================================

func TestRun_ExportedHTML(t *testing.T) {
	doc, err := newTestPipeline().Run(context.Background(), htmlDoc())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantKinds := []model.ElementKind{
		model.KindTitle, model.KindHeading2, model.KindParagraph,
		model.KindHeading2, model.KindParagraph, model.KindTable, model.KindSignature,
	}
	if diff := cmp.Diff(wantKinds, kinds(doc.Elements)); diff != "" {
		t.Fatalf("element kinds mismatch (-want +got):\n%s", diff)
	}
	if doc.Title() != "Contracte de serveis" {
		t.Errorf("Title() = %q", doc.Title())
	}

	wantTables := []model.Table{{
		ID:      "table-1",
		Headers: []string{"Concepte", "Import"},
		Rows:    [][]string{{"Manteniment", "150€"}},
	}}
	if diff := cmp.Diff(wantTables, doc.Tables); diff != "" {
		t.Errorf("tables mismatch (-want +got):\n%s", diff)
	}

	wantSig := &model.Signature{
		Text:  "Atentament,\nJoan Garcia\nDirector",
		Lines: []string{"Atentament,", "Joan Garcia", "Director"},
		Index: 6,
	}
	if diff := cmp.Diff(wantSig, doc.Signature); diff != "" {
		t.Errorf("signature mismatch (-want +got):\n%s", diff)
	}

	if len(doc.Sections) != 3 {
		t.Fatalf("got %d sections, want 3", len(doc.Sections))
	}
	if s := doc.Sections[0]; s.ID != "section-1" || s.Title != "Contracte de serveis" || s.Level != 1 || s.Body != "" {
		t.Errorf("section 1 = %+v", s)
	}
	if s := doc.Sections[1]; s.ID != "section-2" || s.Level != 2 || !strings.Contains(s.Body, "Joan Garcia") {
		t.Errorf("section 2 = %+v", s)
	}
	if s := doc.Sections[2]; !strings.Contains(s.Body, "Manteniment") || !strings.Contains(s.Body, "Director") {
		t.Errorf("section 3 body = %q", s.Body)
	}

	wantPlaceholders := []string{"{{nom_proveidor}}", "joan@exemple.cat", "1.200,50 €", "150€", "30/08/2025"}
	if diff := cmp.Diff(wantPlaceholders, texts(doc.Placeholders)); diff != "" {
		t.Errorf("placeholders mismatch (-want +got):\n%s", diff)
	}

	md := doc.Metadata
	if md.ExtractionMethod != model.MethodPattern {
		t.Errorf("ExtractionMethod = %q", md.ExtractionMethod)
	}
	if _, err := uuid.Parse(md.RunID); err != nil {
		t.Errorf("RunID %q is not a UUID", md.RunID)
	}
	wantCounts := model.ElementCounts{Sections: 3, Tables: 1, Signatures: 1, Paragraphs: 2}
	if md.ElementsFound != wantCounts {
		t.Errorf("ElementsFound = %+v, want %+v", md.ElementsFound, wantCounts)
	}
	if md.Dialect != model.DialectExportedHTML || md.ServiceError != "" {
		t.Errorf("metadata = %+v", md)
	}

	// (.95 + .95 + .50 + .95 + .50 + 1.0 + .85) / 7
	if doc.Confidence != 81 {
		t.Errorf("Confidence = %d, want 81", doc.Confidence)
	}
	if !strings.Contains(doc.HTML, "<h1>") {
		t.Errorf("HTML lacks semantic headings: %s", doc.HTML)
	}
}

func TestRun_CenteredTitle(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		rule   string
		bold   bool
	}{
		{
			"centered bold large span",
			`<p style="text-align:center"><span style="font-weight:700;font-size:18pt">Contracte de serveis</span></p>`,
			"centered-bold-large",
			true,
		},
		{
			"align attribute",
			`<p align="center">Contracte de serveis</p>`,
			"centered-short",
			false,
		},
	}

	const body = `<p>El proveïdor prestarà els serveis descrits en aquest document durant tot l'any.</p>`
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := model.RawDocument{Dialect: model.DialectExportedHTML, Markup: tt.markup + body}
			doc, err := newTestPipeline().Run(context.Background(), raw)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if len(doc.Elements) != 2 {
				t.Fatalf("got %d elements, want 2: %+v", len(doc.Elements), doc.Elements)
			}
			title := doc.Elements[0]
			if title.Kind != model.KindTitle || title.Rule != tt.rule {
				t.Errorf("title = %s via %q, want %s via %q", title.Kind, title.Rule, model.KindTitle, tt.rule)
			}
			if !title.Formatting.Centered || title.Formatting.Bold != tt.bold {
				t.Errorf("title formatting = %+v", title.Formatting)
			}
			if doc.Elements[1].Kind != model.KindParagraph {
				t.Errorf("second element kind = %s", doc.Elements[1].Kind)
			}
		})
	}
}

func TestRun_LooseText(t *testing.T) {
	const sentence = "Per a qualsevol dubte, escriviu a joan@exemple.cat abans de signar el contracte."
	tests := []struct {
		name   string
		markup string
	}{
		{"article", "<html><body><article>" + sentence + "</article></body></html>"},
		{"section", "<section>" + sentence + "</section>"},
		{"body text", "<html><body>" + sentence + "</body></html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := model.RawDocument{Dialect: model.DialectExportedHTML, Markup: tt.markup}
			doc, err := newTestPipeline().Run(context.Background(), raw)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if diff := cmp.Diff([]model.ElementKind{model.KindParagraph}, kinds(doc.Elements)); diff != "" {
				t.Errorf("element kinds mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{"joan@exemple.cat"}, texts(doc.Placeholders)); diff != "" {
				t.Errorf("placeholders mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRun_AbsoluteBands(t *testing.T) {
	raw := model.RawDocument{Dialect: model.DialectExportedHTML, Markup: `<p style="font-size:12pt">Primer apartat</p>` +
		`<p style="font-size:12pt">El proveïdor prestarà els serveis descrits en aquest document durant tot l'any.</p>`}

	tests := []struct {
		name     string
		absolute bool
		wantH5   int
	}{
		{"body relative", false, 0},
		{"absolute", true, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Config{Logger: quietLogger(), AbsoluteBands: tt.absolute})
			doc, err := p.Run(context.Background(), raw)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			got := 0
			for _, m := range doc.Metadata.StyleMappings {
				if m.Tag == "h5" {
					got++
				}
			}
			if got != tt.wantH5 {
				t.Errorf("got %d h5 mappings, want %d: %+v", got, tt.wantH5, doc.Metadata.StyleMappings)
			}
		})
	}
}

func TestRun_NormalizesValues(t *testing.T) {
	doc, err := newTestPipeline().Run(context.Background(), htmlDoc())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	byText := make(map[string]*model.NormalizedValue)
	for _, c := range doc.Placeholders {
		byText[c.Text] = c.Normalized
	}

	if v := byText["1.200,50 €"]; v == nil || v.Number == nil || *v.Number != 1200.5 {
		t.Errorf("1.200,50 € normalized to %+v", v)
	}
	if v := byText["150€"]; v == nil || v.Number == nil || *v.Number != 150 {
		t.Errorf("150€ normalized to %+v", v)
	}
	if v := byText["30/08/2025"]; v == nil || v.String == nil || *v.String != "2025-08-30" {
		t.Errorf("30/08/2025 normalized to %+v", v)
	}
	if v := byText["joan@exemple.cat"]; v != nil {
		t.Errorf("email normalized to %+v, want nil", v)
	}
}

func TestRun_Invariants(t *testing.T) {
	for _, raw := range []model.RawDocument{htmlDoc(), wordDoc()} {
		doc, err := newTestPipeline().Run(context.Background(), raw)
		if err != nil {
			t.Fatalf("Run(%s) error = %v", raw.Dialect, err)
		}
		for _, c := range doc.Placeholders {
			if c.Confidence < 0 || c.Confidence > 100 {
				t.Errorf("%q confidence %d out of range", c.Text, c.Confidence)
			}
			if !model.ValidVariable(c.Variable) {
				t.Errorf("%q variable %q invalid", c.Text, c.Variable)
			}
		}
		for _, tbl := range doc.Tables {
			if len(tbl.Headers) == 0 {
				continue
			}
			for _, row := range tbl.Rows {
				if len(row) != len(tbl.Headers) {
					t.Errorf("%s row %v does not match headers %v", tbl.ID, row, tbl.Headers)
				}
			}
		}
	}
}

func TestRun_Idempotent(t *testing.T) {
	p := newTestPipeline()
	first, err := p.Run(context.Background(), htmlDoc())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	second, err := p.Run(context.Background(), htmlDoc())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if diff := cmp.Diff(first.Elements, second.Elements); diff != "" {
		t.Errorf("elements differ between runs (-first +second):\n%s", diff)
	}
	if first.Metadata.RunID == second.Metadata.RunID {
		t.Error("runs share a run id")
	}
}

// ============================================================================
// Word XML
// ============================================================================

func wordDoc() model.RawDocument {
	return model.RawDocument{Dialect: model.DialectWordXML, Markup: ndaXML, Styles: ndaStyles}
}

func TestRun_WordXML(t *testing.T) {
	doc, err := newTestPipeline().Run(context.Background(), wordDoc())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantKinds := []model.ElementKind{model.KindTitle, model.KindHeading1, model.KindParagraph, model.KindSignature}
	if diff := cmp.Diff(wantKinds, kinds(doc.Elements)); diff != "" {
		t.Fatalf("element kinds mismatch (-want +got):\n%s", diff)
	}
	if doc.Elements[3].Text != "Signat per Maria Puig" {
		t.Errorf("signature text = %q", doc.Elements[3].Text)
	}

	wantPlaceholders := []string{"[Empresa]", "15 de gener de 2025"}
	if diff := cmp.Diff(wantPlaceholders, texts(doc.Placeholders)); diff != "" {
		t.Errorf("placeholders mismatch (-want +got):\n%s", diff)
	}
	date := doc.Placeholders[1].Normalized
	if date == nil || date.String == nil || *date.String != "2025-01-15" {
		t.Errorf("date normalized to %+v", date)
	}
	if doc.Placeholders[0].Variable != "empresa" {
		t.Errorf("variable = %q, want empresa", doc.Placeholders[0].Variable)
	}

	if len(doc.Metadata.StyleMappings) == 0 {
		t.Error("no style mappings recorded")
	}
	if doc.Signature == nil || doc.Signature.Index != 3 {
		t.Errorf("signature = %+v", doc.Signature)
	}
	if doc.HTML == "" {
		t.Error("HTML rendering is empty")
	}
}

// ============================================================================
// Errors and cancellation
// ============================================================================

func TestRun_InputErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  model.RawDocument
	}{
		{"unknown dialect", model.RawDocument{Dialect: "pdf", Markup: "<p>x</p>"}},
		{"empty markup", model.RawDocument{Dialect: model.DialectExportedHTML, Markup: "  "}},
		{"html without elements", model.RawDocument{Dialect: model.DialectExportedHTML, Markup: "just text"}},
		{"not xml", model.RawDocument{Dialect: model.DialectWordXML, Markup: "this is not xml"}},
		{"xml without body", model.RawDocument{Dialect: model.DialectWordXML, Markup: `<w:document ` + wordNS + `></w:document>`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := newTestPipeline().Run(context.Background(), tt.raw)
			if doc != nil {
				t.Error("Run() returned a model with an error")
			}
			if !errors.Is(err, ErrInput) {
				t.Fatalf("Run() error = %v, want ErrInput", err)
			}
			var ie *InputError
			if !errors.As(err, &ie) || ie.Dialect != tt.raw.Dialect {
				t.Errorf("error %v is not an InputError for %q", err, tt.raw.Dialect)
			}
		})
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc, err := newTestPipeline().Run(ctx, htmlDoc())
	if doc != nil || !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, %v; want nil, context.Canceled", doc, err)
	}
}

func TestRun_CanceledDuringServiceCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := placeholder.ServiceFunc(func(sctx context.Context, _ placeholder.Request) (string, error) {
		cancel()
		<-sctx.Done()
		return "", sctx.Err()
	})
	doc, err := newTestPipeline(WithService(svc)).Run(ctx, htmlDoc())
	if doc != nil || !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, %v; want nil, context.Canceled", doc, err)
	}
}

// ============================================================================
// Placeholder service
// ============================================================================

func TestRun_ServiceFailureFallsBack(t *testing.T) {
	base, err := newTestPipeline().Run(context.Background(), htmlDoc())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	svc := placeholder.ServiceFunc(func(context.Context, placeholder.Request) (string, error) {
		return "", errors.New("503 service unavailable")
	})
	doc, err := newTestPipeline(WithService(svc)).Run(context.Background(), htmlDoc())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if doc.Metadata.ExtractionMethod != model.MethodPattern {
		t.Errorf("ExtractionMethod = %q", doc.Metadata.ExtractionMethod)
	}
	if !strings.Contains(doc.Metadata.ServiceError, "503") {
		t.Errorf("ServiceError = %q", doc.Metadata.ServiceError)
	}
	if len(doc.Metadata.Warnings) == 0 {
		t.Error("no warning recorded")
	}
	if doc.Confidence != base.Confidence-ServicePenalty {
		t.Errorf("Confidence = %d, want %d", doc.Confidence, base.Confidence-ServicePenalty)
	}
	if len(doc.Placeholders) == 0 {
		t.Fatal("fallback produced no placeholders")
	}
	for _, c := range doc.Placeholders {
		if c.Origin != model.OriginPattern {
			t.Errorf("%q origin = %q, want pattern", c.Text, c.Origin)
		}
	}
}

func TestRun_UnresponsiveService(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	svc := placeholder.ServiceFunc(func(context.Context, placeholder.Request) (string, error) {
		<-release
		return `{"placeholders":[]}`, nil
	})
	p := New(Config{Logger: quietLogger(), ServiceTimeout: 20 * time.Millisecond}, WithService(svc))

	type outcome struct {
		doc *model.DocumentModel
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		doc, err := p.Run(context.Background(), htmlDoc())
		done <- outcome{doc, err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			t.Fatalf("Run() error = %v", o.err)
		}
		if o.doc.Metadata.ExtractionMethod != model.MethodPattern || o.doc.Metadata.ServiceError == "" {
			t.Errorf("metadata = %+v, want pattern fallback with a service error", o.doc.Metadata)
		}
		if len(o.doc.Placeholders) != 5 {
			t.Errorf("got %d placeholders, want 5", len(o.doc.Placeholders))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() still blocked 2s after a 20ms service timeout")
	}
}

func TestRun_ServiceCandidates(t *testing.T) {
	svc := placeholder.ServiceFunc(func(_ context.Context, req placeholder.Request) (string, error) {
		if !strings.Contains(req.TextWindow, "Joan Garcia") {
			t.Errorf("text window lacks document text: %q", req.TextWindow)
		}
		return `{"placeholders":[{"text":"Joan Garcia","variable":"nom_client","confidence":93,"type":"text"}]}`, nil
	})
	doc, err := newTestPipeline(WithService(svc)).Run(context.Background(), htmlDoc())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if doc.Metadata.ExtractionMethod != model.MethodExternalMerged {
		t.Errorf("ExtractionMethod = %q", doc.Metadata.ExtractionMethod)
	}
	want := []string{"{{nom_proveidor}}", "Joan Garcia", "joan@exemple.cat", "1.200,50 €", "150€", "30/08/2025"}
	if diff := cmp.Diff(want, texts(doc.Placeholders)); diff != "" {
		t.Errorf("placeholders mismatch (-want +got):\n%s", diff)
	}
	if c := doc.Placeholders[1]; c.Origin != model.OriginExternalService || c.Variable != "nom_client" {
		t.Errorf("service candidate = %+v", c)
	}
}

// ============================================================================
// Metrics and configuration
// ============================================================================

func TestRun_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := newTestPipeline(WithRegisterer(reg))

	if _, err := p.Run(context.Background(), htmlDoc()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	p.Run(context.Background(), model.RawDocument{Dialect: model.DialectExportedHTML, Markup: "just text"})

	if got := testutil.ToFloat64(p.metrics.runs.WithLabelValues("exported_html", statusOK)); got != 1 {
		t.Errorf("ok runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.metrics.runs.WithLabelValues("exported_html", statusInput)); got != 1 {
		t.Errorf("input error runs = %v, want 1", got)
	}

	// A second pipeline on the same registry shares the collectors.
	q := newTestPipeline(WithRegisterer(reg))
	if q.metrics.runs != p.metrics.runs {
		t.Error("collectors not shared between pipelines on one registry")
	}
}

func TestNew_Defaults(t *testing.T) {
	cfg := New(Config{}).Config()
	if cfg.MinConfidence != placeholder.DefaultMinConfidence ||
		cfg.WindowSize != placeholder.DefaultWindowSize ||
		cfg.ServiceTimeout != placeholder.DefaultTimeout {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Service.Provider != ProviderNone || cfg.BatchLimit != 4 || cfg.Logger == nil {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestRun_MinConfidence(t *testing.T) {
	p := New(Config{MinConfidence: 90, Logger: quietLogger()})
	doc, err := p.Run(context.Background(), htmlDoc())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if diff := cmp.Diff([]string{"{{nom_proveidor}}"}, texts(doc.Placeholders)); diff != "" {
		t.Errorf("placeholders mismatch (-want +got):\n%s", diff)
	}
}

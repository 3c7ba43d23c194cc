package docstruct

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tsawler/docstruct/model"
	"github.com/tsawler/docstruct/pipeline"
	"github.com/tsawler/docstruct/placeholder"
)

const testHTML = `<html><body>
<h1>Contracte de serveis</h1>
<h2>Objecte</h2>
<p>El proveïdor {{nom_proveidor}} prestarà els serveis a partir del 30/08/2025.</p>
</body></html>`

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

const testDocument = `<w:document ` + wordNS + `><w:body>
<w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>Acord de confidencialitat</w:t></w:r></w:p>
<w:p><w:r><w:t>Les parts protegiran la informació de [Empresa].</w:t></w:r></w:p>
</w:body></w:document>`

const testStyles = `<w:styles ` + wordNS + `>
<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>
<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/></w:style>
</w:styles>`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func createTestDOCX(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"word/document.xml": testDocument,
		"word/styles.xml":   testStyles,
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

// ============================================================================
// Sources
// ============================================================================

func TestFromHTML(t *testing.T) {
	doc, err := FromHTML(testHTML).Logger(quietLogger()).Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if doc.Title() != "Contracte de serveis" {
		t.Errorf("Title() = %q", doc.Title())
	}
	if len(doc.Sections) != 2 {
		t.Errorf("got %d sections, want 2", len(doc.Sections))
	}
	if doc.Metadata.Dialect != model.DialectExportedHTML {
		t.Errorf("Dialect = %q", doc.Metadata.Dialect)
	}
}

func TestFromWordXML(t *testing.T) {
	doc, err := FromWordXML(testDocument, testStyles, "").Logger(quietLogger()).Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if doc.Title() != "Acord de confidencialitat" {
		t.Errorf("Title() = %q", doc.Title())
	}
	if len(doc.Placeholders) == 0 || doc.Placeholders[0].Text != "[Empresa]" {
		t.Errorf("Placeholders = %+v", doc.Placeholders)
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		data        []byte
		wantDialect model.Dialect
		wantName    string
	}{
		{"html by extension", "contracte.html", []byte(testHTML), model.DialectExportedHTML, "contracte.html"},
		{"html by content", "contracte.export", []byte(testHTML), model.DialectExportedHTML, "contracte.export"},
		{"word xml", "document.xml", []byte(testDocument), model.DialectWordXML, "document.xml"},
		{"docx archive", "acord.docx", createTestDOCX(t), model.DialectWordXML, "acord.docx"},
		{"docx by content", "acord.bin", createTestDOCX(t), model.DialectWordXML, "acord.bin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.data)
			raw, err := Open(path).Document()
			if err != nil {
				t.Fatalf("Document() error = %v", err)
			}
			if raw.Dialect != tt.wantDialect {
				t.Errorf("Dialect = %q, want %q", raw.Dialect, tt.wantDialect)
			}
			if raw.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", raw.Name, tt.wantName)
			}
			if _, err := Open(path).Logger(quietLogger()).Analyze(context.Background()); err != nil {
				t.Errorf("Analyze() error = %v", err)
			}
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	if _, err := Open("").Document(); err == nil {
		t.Error("Open(\"\") succeeded")
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing.html")).Document(); err == nil {
		t.Error("Open() of a missing file succeeded")
	}

	path := writeFile(t, "notes.txt", []byte("plain text notes, no markup"))
	if _, err := Open(path).Document(); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Open(notes.txt) error = %v, want ErrUnsupportedFormat", err)
	}

	path = writeFile(t, "broken.docx", []byte("not a zip"))
	if _, err := Open(path).Document(); err == nil {
		t.Error("Open() of a corrupt archive succeeded")
	}
}

// ============================================================================
// Options
// ============================================================================

func TestAnalyzer_Immutable(t *testing.T) {
	base := FromHTML(testHTML)
	strict := base.MinConfidence(99).Name("strict")

	if base.options.minConfidence != 0 || base.options.name != "" {
		t.Errorf("base options changed: %+v", base.options)
	}
	if strict.options.minConfidence != 99 {
		t.Errorf("minConfidence = %d, want 99", strict.options.minConfidence)
	}

	raw, err := strict.Document()
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	if raw.Name != "strict" {
		t.Errorf("Name = %q, want strict", raw.Name)
	}
}

func TestAnalyzer_MinConfidence(t *testing.T) {
	ctx := context.Background()
	all := Must(FromHTML(testHTML).Logger(quietLogger()).Placeholders(ctx))
	strict := Must(FromHTML(testHTML).Logger(quietLogger()).MinConfidence(90).Placeholders(ctx))

	if len(all) < 2 {
		t.Fatalf("got %d placeholders, want at least 2", len(all))
	}
	if len(strict) != 1 || strict[0].Text != "{{nom_proveidor}}" {
		t.Errorf("MinConfidence(90) placeholders = %+v", strict)
	}
}

func TestAnalyzer_WithService(t *testing.T) {
	svc := placeholder.ServiceFunc(func(context.Context, placeholder.Request) (string, error) {
		return `{"placeholders":[{"text":"nom_proveidor","type":"text","confidence":97}]}`, nil
	})
	reg := prometheus.NewRegistry()

	doc, err := FromHTML(testHTML).
		Logger(quietLogger()).
		WithService(svc).
		Registerer(reg).
		Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if doc.Metadata.ExtractionMethod != model.MethodExternalMerged {
		t.Errorf("ExtractionMethod = %q", doc.Metadata.ExtractionMethod)
	}
	n, err := testutil.GatherAndCount(reg, "docstruct_runs_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if n != 1 {
		t.Errorf("docstruct_runs_total series = %d, want 1", n)
	}
}

func TestAnalyzer_InputError(t *testing.T) {
	_, err := FromHTML("just text").Logger(quietLogger()).Analyze(context.Background())
	if !errors.Is(err, pipeline.ErrInput) {
		t.Errorf("Analyze() error = %v, want ErrInput", err)
	}
}

func TestAnalyzer_Text(t *testing.T) {
	text := Must(FromHTML(testHTML).Logger(quietLogger()).Text(context.Background()))
	if !strings.HasPrefix(text, "Contracte de serveis") {
		t.Errorf("Text() = %q", text)
	}
	sections := Must(FromHTML(testHTML).Logger(quietLogger()).Sections(context.Background()))
	if len(sections) != 2 || sections[1].Title != "Objecte" {
		t.Errorf("Sections() = %+v", sections)
	}
}

func TestMust_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Must() did not panic")
		}
	}()
	Must(Open("").Document())
}

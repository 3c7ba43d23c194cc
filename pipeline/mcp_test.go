package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tsawler/docstruct/model"
)

var testMCPImpl = &mcp.Implementation{Name: "docstruct-test", Version: "0.1.0"}

func mcpSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testMCPImpl, nil)
	newTestPipeline().RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return result
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if err := result.GetError(); err != nil {
		t.Fatalf("tool error: %v", err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	return tc.Text
}

func TestMCP_Analyze(t *testing.T) {
	session := mcpSession(t)

	text := toolText(t, callTool(t, session, "docstruct_analyze", map[string]any{
		"dialect": "html",
		"markup":  contractHTML,
	}))

	var doc model.DocumentModel
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Title() != "Contracte de serveis" {
		t.Errorf("Title() = %q", doc.Title())
	}
	if len(doc.Placeholders) == 0 || len(doc.Tables) != 1 {
		t.Errorf("placeholders = %d, tables = %d", len(doc.Placeholders), len(doc.Tables))
	}
}

func TestMCP_AnalyzeInputError(t *testing.T) {
	session := mcpSession(t)

	for _, args := range []map[string]any{
		{"dialect": "exported_html", "markup": "just text"},
		{"dialect": "rtf", "markup": "<p>x</p>"},
	} {
		result := callTool(t, session, "docstruct_analyze", args)
		if !result.IsError {
			t.Errorf("docstruct_analyze(%v) did not report an error", args)
		}
	}
}

func TestMCP_NormalizeValue(t *testing.T) {
	session := mcpSession(t)

	tests := []struct {
		text, typ  string
		wantKind   model.NormalizedKind
		wantString string
		wantNumber float64
	}{
		{"15 de gener de 2025", "date", model.NormalizedDate, "2025-01-15", 0},
		{"150€", "currency", model.NormalizedCurrency, "", 150},
		{"12,5 %", "percent", model.NormalizedPercent, "", 12.5},
	}

	for _, tt := range tests {
		text := toolText(t, callTool(t, session, "docstruct_normalize_value", map[string]any{
			"text": tt.text,
			"type": tt.typ,
		}))

		var resp normalizeResp
		if err := json.Unmarshal([]byte(text), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		v := resp.Normalized
		if v == nil || v.Kind != tt.wantKind {
			t.Errorf("%q normalized to %+v", tt.text, v)
			continue
		}
		if tt.wantString != "" && (v.String == nil || *v.String != tt.wantString) {
			t.Errorf("%q string = %v, want %q", tt.text, v.String, tt.wantString)
		}
		if tt.wantString == "" && (v.Number == nil || *v.Number != tt.wantNumber) {
			t.Errorf("%q number = %v, want %v", tt.text, v.Number, tt.wantNumber)
		}
	}
}

func TestMCP_NormalizeValueText(t *testing.T) {
	session := mcpSession(t)
	text := toolText(t, callTool(t, session, "docstruct_normalize_value", map[string]any{
		"text": "Joan Garcia",
		"type": "text",
	}))
	var resp normalizeResp
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Normalized != nil || resp.Type != model.TypeText {
		t.Errorf("resp = %+v", resp)
	}
}

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tsawler/docstruct/model"
	"github.com/tsawler/docstruct/value"
)

// RegisterMCP registers the pipeline tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	p.registerAnalyzeTool(srv)
	registerNormalizeTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// addTool registers a tool whose handler decodes its arguments into a
// fresh request value and returns a JSON-encodable response.
func addTool[Req any](srv *mcp.Server, tool *mcp.Tool, endpoint func(context.Context, *Req) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r Req
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
				return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
			}
		}

		resp, err := endpoint(ctx, &r)
		if err != nil {
			return toolError(err), nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			return toolError(fmt.Errorf("marshal: %w", err)), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}

// --- analyze ---

type analyzeReq struct {
	Dialect   string `json:"dialect"`
	Markup    string `json:"markup"`
	Styles    string `json:"styles"`
	Numbering string `json:"numbering"`
	Name      string `json:"name"`
}

func (p *Pipeline) registerAnalyzeTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name: "docstruct_analyze",
		Description: "Classify the structure of a document (word_xml or exported_html markup) " +
			"and extract confidence-scored placeholder candidates.",
		InputSchema: inputSchema(map[string]any{
			"dialect":   map[string]any{"type": "string", "description": "word_xml (or docx) / exported_html (or html)"},
			"markup":    map[string]any{"type": "string", "description": "word/document.xml content or exported HTML"},
			"styles":    map[string]any{"type": "string", "description": "Optional word/styles.xml content"},
			"numbering": map[string]any{"type": "string", "description": "Optional word/numbering.xml content"},
			"name":      map[string]any{"type": "string", "description": "Optional document label"},
		}, []string{"dialect", "markup"}),
	}

	addTool(srv, tool, func(ctx context.Context, r *analyzeReq) (any, error) {
		dialect, ok := model.ParseDialect(r.Dialect)
		if !ok {
			return nil, &InputError{Dialect: model.Dialect(r.Dialect), Err: errors.New("unknown dialect")}
		}
		return p.Run(ctx, model.RawDocument{
			Dialect:   dialect,
			Markup:    r.Markup,
			Styles:    r.Styles,
			Numbering: r.Numbering,
			Name:      r.Name,
		})
	})
}

// --- normalize value ---

type normalizeReq struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

type normalizeResp struct {
	Text       string                 `json:"text"`
	Type       model.PlaceholderType  `json:"type"`
	Normalized *model.NormalizedValue `json:"normalizedValue"`
}

func registerNormalizeTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docstruct_normalize_value",
		Description: "Normalize a literal value (date, currency, percent, number) to its typed form.",
		InputSchema: inputSchema(map[string]any{
			"text": map[string]any{"type": "string", "description": "Literal text, e.g. \"15 de gener de 2025\""},
			"type": map[string]any{"type": "string", "description": "text, date, number, currency, percent, email or other"},
		}, []string{"text", "type"}),
	}

	addTool(srv, tool, func(_ context.Context, r *normalizeReq) (any, error) {
		typ, _ := model.ParsePlaceholderType(r.Type)
		return normalizeResp{
			Text:       r.Text,
			Type:       typ,
			Normalized: value.Normalize(r.Text, typ),
		}, nil
	})
}

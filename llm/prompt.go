// Package llm adapts hosted language models to placeholder.Service.
//
// Both adapters send the same instruction and ask for a JSON answer; the
// answer is returned verbatim and validated by placeholder.ParseResponse.
package llm

import (
	"fmt"
	"strings"

	"github.com/tsawler/docstruct/placeholder"
)

// Default model names.
const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// SystemInstruction frames the task for the model.
const SystemInstruction = "You analyse legal and administrative documents written in Catalan, " +
	"Spanish or English and find the spans that change from one instance of the document to the " +
	"next: names, dates, amounts, identifiers, addresses and marked slots such as {{field}} or [field]. " +
	"Answer with a single JSON object and nothing else."

// BuildPrompt renders the user prompt for a request.
func BuildPrompt(req placeholder.Request) string {
	schema := req.SchemaHint
	if schema == "" {
		schema = placeholder.SchemaHint
	}

	var sb strings.Builder
	sb.WriteString("Find the placeholder candidates in the document below.\n")
	sb.WriteString("Copy each candidate's text exactly as it appears. Use snake_case variable names ")
	sb.WriteString("and a confidence between 0 and 100.\n\n")
	fmt.Fprintf(&sb, "Answer with JSON of this shape:\n%s\n\n", schema)
	fmt.Fprintf(&sb, "Document:\n%s\n", req.TextWindow)
	return sb.String()
}

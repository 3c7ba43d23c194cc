package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/docstruct"
	"github.com/tsawler/docstruct/model"
	"github.com/tsawler/docstruct/pipeline"
)

// fileResult is one entry of the multi-file output.
type fileResult struct {
	File     string               `json:"file"`
	Document *model.DocumentModel `json:"document,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// analyzeFiles analyses the given files and writes JSON to w. A single file
// prints its DocumentModel; several files print an array of fileResult.
// When tablesDir is set every extracted table is also written there as CSV.
func analyzeFiles(ctx context.Context, pipe *pipeline.Pipeline, files []string, pretty bool, tablesDir string, w io.Writer) error {
	docs := make([]model.RawDocument, len(files))
	for i, f := range files {
		raw, err := docstruct.Open(f).Document()
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		docs[i] = raw
	}

	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}

	if len(docs) == 1 {
		doc, err := pipe.Run(ctx, docs[0])
		if err != nil {
			return fmt.Errorf("%s: %w", files[0], err)
		}
		if err := writeTables(tablesDir, files[0], doc); err != nil {
			return err
		}
		return enc.Encode(doc)
	}

	results, err := pipe.ProcessBatch(ctx, docs, 0)
	if err != nil {
		return err
	}
	out := make([]fileResult, len(results))
	failed := 0
	for i, r := range results {
		out[i] = fileResult{File: files[r.Index], Document: r.Model}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
			failed++
			continue
		}
		if err := writeTables(tablesDir, files[r.Index], r.Model); err != nil {
			return err
		}
	}
	if err := enc.Encode(out); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(files))
	}
	return nil
}

// writeTables writes each table of doc to dir as <name>-<table id>.csv.
func writeTables(dir, file string, doc *model.DocumentModel) error {
	if dir == "" || doc == nil || len(doc.Tables) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating tables directory: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	for i := range doc.Tables {
		t := &doc.Tables[i]
		path := filepath.Join(dir, base+"-"+t.ID+".csv")
		if err := os.WriteFile(path, []byte(t.ToCSV()), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

package pipeline

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/docstruct/model"
)

// BatchResult is the outcome of one document in a batch.
type BatchResult struct {
	Index int
	Name  string
	Model *model.DocumentModel
	// Err is the document's InputError, if any.
	Err error
}

// ProcessBatch runs docs concurrently, at most limit at a time (Config
// BatchLimit when limit <= 0). Input errors are reported per document; the
// batch itself only fails when ctx is done, in which case no results are
// returned.
func (p *Pipeline) ProcessBatch(ctx context.Context, docs []model.RawDocument, limit int) ([]BatchResult, error) {
	if limit <= 0 {
		limit = p.cfg.BatchLimit
	}

	results := make([]BatchResult, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, doc := range docs {
		g.Go(func() error {
			m, err := p.Run(gctx, doc)
			if err != nil && !errors.Is(err, ErrInput) {
				return err
			}
			results[i] = BatchResult{Index: i, Name: doc.Name, Model: m, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

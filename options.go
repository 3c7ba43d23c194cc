package docstruct

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tsawler/docstruct/placeholder"
)

// analyzeOptions holds the configuration applied by an Analyzer.
type analyzeOptions struct {
	// Placeholder extraction (zero values select the pipeline defaults)
	minConfidence  int
	windowSize     int
	serviceTimeout time.Duration

	service    placeholder.Service
	logger     *slog.Logger
	registerer prometheus.Registerer

	// name overrides the document label
	name string
}

// defaultOptions returns the default analysis options.
func defaultOptions() analyzeOptions {
	return analyzeOptions{}
}

// clone creates a copy of analyzeOptions. The service, logger and
// registerer are shared.
func (o analyzeOptions) clone() analyzeOptions {
	return o
}

package pipeline

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Run statuses used as metric labels.
const (
	statusOK       = "ok"
	statusInput    = "input_error"
	statusCanceled = "canceled"
)

type metrics struct {
	runs         *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	fallbacks    prometheus.Counter
	placeholders prometheus.Histogram
}

// newMetrics creates the pipeline collectors and registers them with reg
// when it is non-nil. Collectors already registered by another pipeline on
// the same registry are shared.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docstruct_runs_total",
			Help: "Pipeline runs by dialect and status",
		}, []string{"dialect", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docstruct_run_duration_seconds",
			Help:    "Duration of successful pipeline runs",
			Buckets: prometheus.DefBuckets,
		}, []string{"dialect"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docstruct_service_fallbacks_total",
			Help: "Runs where the placeholder service failed and pattern extraction was used alone",
		}),
		placeholders: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "docstruct_placeholders",
			Help:    "Placeholder candidates kept per run",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
	}
	if reg == nil {
		return m
	}
	m.runs = register(reg, m.runs)
	m.duration = register(reg, m.duration)
	m.fallbacks = register(reg, m.fallbacks)
	m.placeholders = register(reg, m.placeholders)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

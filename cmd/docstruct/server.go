package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tsawler/docstruct/model"
	"github.com/tsawler/docstruct/pipeline"
)

const maxBodyBytes = 32 << 20

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// newRouter builds the HTTP API around pipe.
func newRouter(pipe *pipeline.Pipeline, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", analyzeHandler(pipe))
		r.Post("/analyze/batch", batchHandler(pipe))
	})
	return r
}

func analyzeHandler(pipe *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var raw model.RawDocument
		if err := decodeBody(w, r, &raw); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		doc, err := pipe.Run(r.Context(), raw)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

type batchRequest struct {
	Documents []model.RawDocument `json:"documents"`
}

type batchItem struct {
	Index    int                  `json:"index"`
	Name     string               `json:"name,omitempty"`
	Document *model.DocumentModel `json:"document,omitempty"`
	Error    string               `json:"error,omitempty"`
}

func batchHandler(pipe *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		results, err := pipe.ProcessBatch(r.Context(), req.Documents, 0)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		items := make([]batchItem, len(results))
		for i, res := range results {
			items[i] = batchItem{Index: res.Index, Name: res.Name, Document: res.Model}
			if res.Err != nil {
				items[i].Error = res.Err.Error()
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": items})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// serve runs the HTTP API until ctx is done.
func serve(ctx context.Context, pipe *pipeline.Pipeline, reg *prometheus.Registry, addr string) error {
	logger := pipe.Config().Logger
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(pipe, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("docstruct: listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("docstruct: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// serveMCP exposes the pipeline tools over stdio.
func serveMCP(ctx context.Context, pipe *pipeline.Pipeline) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "docstruct", Version: version}, nil)
	pipe.RegisterMCP(srv)
	pipe.Config().Logger.Info("docstruct: MCP server on stdio")
	err := srv.Run(ctx, &mcp.StdioTransport{})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}


// Command docstruct analyses word-processor and exported HTML documents.
//
// Usage:
//
//	docstruct analyze contract.docx           # print the DocumentModel as JSON
//	docstruct analyze -min-confidence 85 a.docx b.html
//	docstruct analyze -tables out/ contract.html   # also write tables as CSV
//	docstruct serve -addr :8080               # HTTP API with /metrics
//	docstruct mcp                             # MCP server on stdio
//
// Every subcommand accepts -config (YAML) and -log-level.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tsawler/docstruct/pipeline"
)

const version = "0.1.0"

const usage = `usage: docstruct <command> [flags]

commands:
  analyze <file>...   analyse documents and print JSON
  serve               run the HTTP API
  mcp                 run an MCP server on stdio
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "docstruct: %v\n", err)
		os.Exit(1)
	}
}

// commonFlags are shared by every subcommand.
type commonFlags struct {
	config        string
	logLevel      string
	logFormat     string
	minConfidence int
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "", "path to docstruct.yaml config file")
	fs.StringVar(&c.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&c.logFormat, "log-format", "json", "log format: json or text")
	fs.IntVar(&c.minConfidence, "min-confidence", 0, "drop placeholder candidates below this score (0: config/default)")
}

func run(ctx context.Context, cmd string, args []string, stdout, stderr io.Writer) error {
	var common commonFlags
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	common.register(fs)

	switch cmd {
	case "analyze":
		pretty := fs.Bool("pretty", true, "indent JSON output")
		tables := fs.String("tables", "", "also write extracted tables as CSV files to this directory")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() == 0 {
			return fmt.Errorf("analyze: no input files")
		}
		pipe, err := newPipeline(ctx, common, stderr)
		if err != nil {
			return err
		}
		return analyzeFiles(ctx, pipe, fs.Args(), *pretty, *tables, stdout)

	case "serve":
		addr := fs.String("addr", ":8080", "listen address")
		if err := fs.Parse(args); err != nil {
			return err
		}
		reg := newRegistry()
		pipe, err := newPipeline(ctx, common, stderr, pipeline.WithRegisterer(reg))
		if err != nil {
			return err
		}
		return serve(ctx, pipe, reg, *addr)

	case "mcp":
		if err := fs.Parse(args); err != nil {
			return err
		}
		pipe, err := newPipeline(ctx, common, stderr)
		if err != nil {
			return err
		}
		return serveMCP(ctx, pipe)

	case "version":
		fmt.Fprintln(stdout, "docstruct", version)
		return nil

	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// newPipeline loads the configuration and builds a pipeline that logs to
// stderr. The metrics registry is only attached by serve.
func newPipeline(ctx context.Context, c commonFlags, stderr io.Writer, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	cfg, err := pipeline.LoadConfig(c.config)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if c.minConfidence != 0 {
		cfg.MinConfidence = c.minConfidence
	}
	cfg.Logger = newLogger(stderr, c.logLevel, c.logFormat)
	return pipeline.NewFromConfig(ctx, cfg, opts...)
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

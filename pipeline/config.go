package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/tsawler/docstruct/llm"
	"github.com/tsawler/docstruct/placeholder"
)

// Environment variables read by LoadConfig.
const (
	EnvProvider     = "DOCSTRUCT_SERVICE_PROVIDER"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// Service providers.
const (
	ProviderNone   = "none"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config configures a Pipeline.
type Config struct {
	// MinConfidence drops placeholder candidates below it (default: 70).
	MinConfidence int `json:"min_confidence" yaml:"min_confidence"`

	// WindowSize is the number of characters sent to the service (default: 3500).
	WindowSize int `json:"window_size" yaml:"window_size"`

	// ServiceTimeout bounds one service call (default: 20s).
	ServiceTimeout time.Duration `json:"service_timeout" yaml:"service_timeout"`

	// MinTextRatio is the markup cleaner's safety valve ratio (default: 0.1).
	MinTextRatio float64 `json:"min_text_ratio" yaml:"min_text_ratio"`

	// AbsoluteBands applies the re-tagger's font-size bands to every block,
	// including body text. By default a band only applies to blocks larger
	// than the dominant body size.
	AbsoluteBands bool `json:"absolute_bands" yaml:"absolute_bands"`

	// BatchLimit caps concurrent runs in ProcessBatch (default: 4).
	BatchLimit int `json:"batch_limit" yaml:"batch_limit"`

	Service ServiceConfig `json:"service" yaml:"service"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// ServiceConfig selects the external text-understanding service.
type ServiceConfig struct {
	// Provider is "gemini", "openai" or "none" (default).
	Provider string `json:"provider" yaml:"provider"`
	Model    string `json:"model" yaml:"model"`
	APIKey   string `json:"-" yaml:"api_key"`
	BaseURL  string `json:"base_url" yaml:"base_url"`

	// RateLimit is the maximum number of calls per second; zero means
	// unlimited.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`
	Burst     int     `json:"burst" yaml:"burst"`
}

func (c *Config) defaults() {
	if c.MinConfidence == 0 {
		c.MinConfidence = placeholder.DefaultMinConfidence
	}
	if c.WindowSize <= 0 {
		c.WindowSize = placeholder.DefaultWindowSize
	}
	if c.ServiceTimeout <= 0 {
		c.ServiceTimeout = placeholder.DefaultTimeout
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = 4
	}
	if c.Service.Provider == "" {
		c.Service.Provider = ProviderNone
	}
	if c.Service.Burst <= 0 {
		c.Service.Burst = 1
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// LoadConfig reads a YAML configuration file and applies environment
// overrides. An empty path yields the defaults plus the environment.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.defaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if p := os.Getenv(EnvProvider); p != "" {
		c.Service.Provider = p
	}
	c.Service.Provider = strings.ToLower(strings.TrimSpace(c.Service.Provider))
	if c.Service.APIKey != "" {
		return
	}
	switch c.Service.Provider {
	case ProviderGemini:
		c.Service.APIKey = os.Getenv(EnvGeminiAPIKey)
	case ProviderOpenAI:
		c.Service.APIKey = os.Getenv(EnvOpenAIAPIKey)
	}
}

// NewService builds the configured service. It returns nil when the
// provider is "none".
func NewService(ctx context.Context, cfg ServiceConfig) (placeholder.Service, error) {
	var (
		svc placeholder.Service
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderNone:
		return nil, nil
	case ProviderGemini:
		svc, err = llm.NewGemini(ctx, llm.GeminiConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL})
	case ProviderOpenAI:
		svc, err = llm.NewOpenAI(llm.OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL})
	default:
		return nil, fmt.Errorf("unknown service provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		svc = placeholder.RateLimited(svc, rate.Limit(cfg.RateLimit), burst)
	}
	return svc, nil
}

// Package langchain implements the model provider over langchaingo, giving
// one client for the OpenAI, Anthropic and Google model backends.
package langchain

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"github.com/kailas-cloud/finquery/internal/domain/transform"
	"github.com/kailas-cloud/finquery/internal/metrics"
)

// Supported backends.
const (
	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
	BackendGoogleAI  = "googleai"
)

// Client is a model provider backed by a langchaingo chat model.
type Client struct {
	model   llms.Model
	backend string
	name    string
	logger  *zap.Logger
}

// Config holds the provider settings.
type Config struct {
	Backend string // openai, anthropic, googleai
	APIKey  string
	Model   string
	BaseURL string // OpenAI-compatible backends only
	Logger  *zap.Logger
}

// New creates a langchaingo-backed model provider.
func New(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required for backend %q", cfg.Backend)
	}

	var model llms.Model
	var err error
	switch cfg.Backend {
	case BackendOpenAI:
		opts := []openai.Option{
			openai.WithToken(cfg.APIKey),
			openai.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)
	case BackendAnthropic:
		model, err = anthropic.New(
			anthropic.WithToken(cfg.APIKey),
			anthropic.WithModel(cfg.Model),
		)
	case BackendGoogleAI:
		model, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unknown model backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s model: %w", cfg.Backend, err)
	}

	return &Client{model: model, backend: cfg.Backend, name: cfg.Model, logger: cfg.Logger}, nil
}

// Invoke sends one chat generation in JSON mode and returns the raw text of
// the first choice.
func (c *Client) Invoke(ctx context.Context, systemContext, instruction string) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemContext)},
		},
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(instruction)},
		},
	}

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, content,
		llms.WithTemperature(0.0),
		llms.WithJSONMode(),
	)
	duration := time.Since(start)

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(c.backend, c.name, "error").Inc()
		return "", fmt.Errorf("generate content: %s: %w", err, transform.ErrProviderFailure)
	}

	metrics.ProviderRequestsTotal.WithLabelValues(c.backend, c.name, "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(c.backend, c.name).Observe(duration.Seconds())

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in model response: %w", transform.ErrProviderFailure)
	}
	return resp.Choices[0].Content, nil
}

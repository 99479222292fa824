// Package openai implements the model provider over the OpenAI-compatible
// chat API, forcing a function call so the model returns the search plan as
// structured arguments.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/finquery/internal/domain/transform"
	"github.com/kailas-cloud/finquery/internal/metrics"
)

const planFunctionName = "emit_search_plan"

// planSchema constrains the forced function call to the interpreter's
// envelope: an optional answer plus an optional search body.
const planSchema = `{
  "type": "object",
  "properties": {
    "answer": {"type": "string", "description": "Direct answer or a one-line explanation of the query"},
    "query": {
      "type": "object",
      "properties": {
        "bool": {
          "type": "object",
          "properties": {
            "must": {"type": "array", "items": {"type": "object", "additionalProperties": true}},
            "should": {"type": "array", "items": {"type": "object", "additionalProperties": true}},
            "must_not": {"type": "array", "items": {"type": "object", "additionalProperties": true}},
            "filter": {"type": "array", "items": {"type": "object", "additionalProperties": true}}
          },
          "additionalProperties": false
        }
      },
      "required": ["bool"]
    },
    "sort": {"type": "array", "items": {"type": "object", "additionalProperties": true}},
    "from": {"type": "integer"},
    "size": {"type": "integer"}
  }
}`

// Client is a model provider using the OpenAI-compatible chat API.
type Client struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds the provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// New creates an OpenAI-compatible model provider.
func New(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Invoke sends one chat completion with a forced call to the plan function
// and returns the raw function arguments. Temperature is pinned to zero.
func (c *Client) Invoke(ctx context.Context, systemContext, instruction string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemContext},
			{Role: openai.ChatMessageRoleUser, Content: instruction},
		},
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        planFunctionName,
				Description: "Emit the structured search plan for the user's request",
				Parameters:  json.RawMessage(planSchema),
			},
		}},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: planFunctionName},
		},
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues("openai", c.model, "error").Inc()
		return "", parseAPIError(err)
	}

	metrics.ProviderRequestsTotal.WithLabelValues("openai", c.model, "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues("openai", c.model).Observe(duration.Seconds())

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response: %w", transform.ErrProviderFailure)
	}

	msg := resp.Choices[0].Message
	for _, call := range msg.ToolCalls {
		if call.Function.Name == planFunctionName {
			return call.Function.Arguments, nil
		}
	}

	// Some OpenAI-compatible backends ignore tool_choice and answer in the
	// message body; hand that to the interpreter as-is.
	return msg.Content, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a readable message from the API response. All
// errors wrap transform.ErrProviderFailure so the facade treats them alike.
func parseAPIError(err error) error {
	wrap := transform.ErrProviderFailure

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("completion request failed: %w", wrap)
}

package finquery

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Provider invokes a language model with a system context and an instruction,
// returning the raw model output. Implement it to plug in a custom backend.
type Provider interface {
	Invoke(ctx context.Context, systemContext, instruction string) (string, error)
}

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	providerKind string // "openai", "langchain" or "custom"
	provider     Provider

	apiKey  string
	model   string
	baseURL string
	backend string // langchain only

	esAddrs    []string
	esIndex    string
	esUsername string
	esPassword string

	cacheAddrs    []string
	cachePassword string
	cacheTTL      time.Duration

	logger *zap.Logger
}

// WithOpenAI selects the OpenAI-compatible chat API as the model provider.
func WithOpenAI(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.providerKind = "openai"
		c.apiKey = apiKey
		c.model = model
	})
}

// WithBaseURL points OpenAI-compatible providers at a non-default endpoint
// (proxies, Azure, local inference servers).
func WithBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = url
	})
}

// WithLangChain selects a langchaingo-backed model provider.
// Supported backends: "openai", "anthropic", "googleai".
func WithLangChain(backend, apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.providerKind = "langchain"
		c.backend = backend
		c.apiKey = apiKey
		c.model = model
	})
}

// WithProvider plugs in a custom model provider.
func WithProvider(p Provider) Option {
	return optionFunc(func(c *clientConfig) {
		c.providerKind = "custom"
		c.provider = p
	})
}

// WithElasticsearch configures the search index. Without it the client
// still compiles queries; Search and Query().Do return an error.
func WithElasticsearch(addrs []string, index string) Option {
	return optionFunc(func(c *clientConfig) {
		c.esAddrs = addrs
		c.esIndex = index
	})
}

// WithElasticBasicAuth sets basic auth credentials for the index.
func WithElasticBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.esUsername = username
		c.esPassword = password
	})
}

// WithQueryCache enables Redis-backed caching of compiled queries.
// Fallback results are never cached.
func WithQueryCache(addrs []string, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddrs = addrs
		c.cachePassword = password
		c.cacheTTL = ttl
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

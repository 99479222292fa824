package finquery

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/finquery/internal/compiler"
	dbRedis "github.com/kailas-cloud/finquery/internal/db/redis"
	"github.com/kailas-cloud/finquery/internal/domain/schema"
	"github.com/kailas-cloud/finquery/internal/interpret"
	"github.com/kailas-cloud/finquery/internal/prompt"
	"github.com/kailas-cloud/finquery/internal/repository/qcache"
	"github.com/kailas-cloud/finquery/internal/transport/elastic"
	llmLangchain "github.com/kailas-cloud/finquery/internal/transport/llm/langchain"
	llmOpenAI "github.com/kailas-cloud/finquery/internal/transport/llm/openai"
	healthuc "github.com/kailas-cloud/finquery/internal/usecase/health"
	searchuc "github.com/kailas-cloud/finquery/internal/usecase/search"
)

// Client is the finquery SDK entry point.
type Client struct {
	registry    *schema.Registry
	transformer searchuc.Transformer
	index       *elastic.Client
	searchSvc   *searchuc.Service
	healthSvc   *healthuc.Service
	cacheStore  interface{ Close() }
}

// New creates a finquery Client. A model provider option is required;
// the index and the query cache are optional.
// The provided context is used for provider initialization only.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	prov, err := createProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return wireClient(cfg, prov, logger)
}

func createProvider(ctx context.Context, cfg *clientConfig, logger *zap.Logger) (Provider, error) {
	switch cfg.providerKind {
	case "openai":
		return llmOpenAI.New(&llmOpenAI.Config{
			APIKey:  cfg.apiKey,
			BaseURL: cfg.baseURL,
			Model:   cfg.model,
			Logger:  logger,
		}), nil
	case "langchain":
		p, err := llmLangchain.New(ctx, &llmLangchain.Config{
			Backend: cfg.backend,
			APIKey:  cfg.apiKey,
			Model:   cfg.model,
			BaseURL: cfg.baseURL,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("finquery: create langchain provider: %w", err)
		}
		return p, nil
	case "custom":
		return cfg.provider, nil
	default:
		return nil, errors.New(
			"finquery: model provider required (use WithOpenAI, WithLangChain, or WithProvider)",
		)
	}
}

func wireClient(cfg *clientConfig, prov Provider, logger *zap.Logger) (*Client, error) {
	reg := schema.Stocks()
	comp := compiler.New(prompt.NewBuilder(reg), prov, interpret.New(reg), logger)

	var transformer searchuc.Transformer = comp
	var cacheStore interface{ Close() }
	if len(cfg.cacheAddrs) > 0 {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("finquery: create cache store: %w", err)
		}
		transformer = qcache.New(comp, store, cfg.cacheTTL, nil, logger)
		cacheStore = store
	}

	c := &Client{
		registry:    reg,
		transformer: transformer,
		cacheStore:  cacheStore,
	}

	if len(cfg.esAddrs) > 0 {
		index, err := elastic.New(elastic.Config{
			Addresses: cfg.esAddrs,
			Username:  cfg.esUsername,
			Password:  cfg.esPassword,
			Index:     cfg.esIndex,
		})
		if err != nil {
			if cacheStore != nil {
				cacheStore.Close()
			}
			return nil, fmt.Errorf("finquery: create elasticsearch client: %w", err)
		}
		c.index = index
		c.searchSvc = searchuc.New(transformer, index)
		c.healthSvc = healthuc.New(index, providerChecker(prov))
	} else {
		c.healthSvc = healthuc.New(noIndex{}, providerChecker(prov))
	}

	return c, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.cacheStore != nil {
		c.cacheStore.Close()
	}
}

// Ping checks index connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if c.index == nil {
		return ErrNoIndex
	}
	if err := c.index.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// providerChecker exposes a provider health check when the concrete
// provider implements one. Nil disables the check.
func providerChecker(prov Provider) healthuc.ProviderChecker {
	if hc, ok := prov.(interface{ HealthCheck(context.Context) error }); ok {
		return checkerFunc(hc.HealthCheck)
	}
	return nil
}

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// noIndex stands in for the index when none is configured.
type noIndex struct{}

func (noIndex) Ping(_ context.Context) error { return ErrNoIndex }

// Package qcache caches transform results in a key-value store, so repeated
// natural-language queries skip the model round trip. It decorates the
// compiler at the composition root; the compiler itself stays stateless.
package qcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/finquery/internal/db"
	"github.com/kailas-cloud/finquery/internal/domain/transform"
)

const cacheKeyPrefix = "finquery:transform:"

// Transformer is the contract this decorator wraps and re-exposes.
type Transformer interface {
	Transform(ctx context.Context, nlQuery string) transform.Result
}

// store is the consumer interface for the cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedTransformer caches transform results keyed by the normalized input.
type CachedTransformer struct {
	inner      Transformer
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner Transformer,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedTransformer {
	return &CachedTransformer{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Transform returns a cached result or calls the inner transformer.
// Fallback results are never cached: a transient provider failure must not
// pin match-all onto a query for the TTL.
func (c *CachedTransformer) Transform(ctx context.Context, nlQuery string) transform.Result {
	normalized := strings.ToLower(strings.TrimSpace(nlQuery))
	if normalized == "" {
		return c.inner.Transform(ctx, nlQuery)
	}

	key := c.cacheKey(normalized)
	if res, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return res
	}
	c.incCache("miss")

	res := c.inner.Transform(ctx, nlQuery)
	if !res.IsFallback() {
		c.putToCache(ctx, key, res)
	}
	return res
}

func (c *CachedTransformer) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedTransformer) cacheKey(normalized string) string {
	h := sha256.Sum256([]byte(normalized))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedTransformer) getFromCache(ctx context.Context, key string) (transform.Result, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached transform", zap.String("key", key), zap.Error(err))
		}
		return transform.Result{}, false
	}

	var res transform.Result
	if err := json.Unmarshal(data, &res); err != nil {
		c.logger.Warn("Failed to parse cached transform", zap.String("key", key), zap.Error(err))
		return transform.Result{}, false
	}
	return res, true
}

func (c *CachedTransformer) putToCache(ctx context.Context, key string, res transform.Result) {
	data, err := json.Marshal(res)
	if err != nil {
		c.logger.Warn("Failed to encode transform for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache transform", zap.String("key", key), zap.Error(err))
	}
}

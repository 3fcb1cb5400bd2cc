package schema

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dareg/internal/domain/schema"
)

// getter is the wrapped schema source.
type getter interface {
	Get(ctx context.Context, id string) (schema.Schema, error)
}

// Cached keeps recently used schemas in a bounded LRU with TTL.
// Lookup failures, including not-found, are never cached.
type Cached struct {
	inner      getter
	lru        *expirable.LRU[string, schema.Schema]
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// NewCached creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"); may be nil.
func NewCached(
	inner getter,
	size int,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{
		inner:      inner,
		lru:        expirable.NewLRU[string, schema.Schema](size, nil, ttl),
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Get returns a cached schema or loads it from the inner source.
func (c *Cached) Get(ctx context.Context, id string) (schema.Schema, error) {
	if s, ok := c.lru.Get(id); ok {
		c.incCache("hit")
		return s, nil
	}
	c.incCache("miss")

	s, err := c.inner.Get(ctx, id)
	if err != nil {
		return schema.Schema{}, err
	}
	if c.lru.Add(id, s) {
		c.logger.Debug("Schema cache eviction", zap.String("schema_id", id))
	}
	return s, nil
}

// Invalidate drops one schema, e.g. after it was rewritten.
func (c *Cached) Invalidate(id string) {
	c.lru.Remove(id)
}

// Len returns the number of cached schemas.
func (c *Cached) Len() int {
	return c.lru.Len()
}

func (c *Cached) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

package cache

import (
	"context"
	"fmt"

	"github.com/fiapx/fiapx-motion-service/internal/domain/motion"
	"github.com/fiapx/fiapx-motion-service/internal/infra/metrics"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CollectionCache keeps aggregated collections keyed by video identity.
// Concurrent misses on the same key share a single build.
type CollectionCache struct {
	entries *lru.Cache[string, *motion.Collection]
	group   singleflight.Group
	logger  *zap.Logger
}

func NewCollectionCache(size int, logger *zap.Logger) (*CollectionCache, error) {
	if size < 1 {
		size = 1
	}
	entries, err := lru.NewWithEvict(size, func(key string, _ *motion.Collection) {
		logger.Debug("collection evicted", zap.String("key", key))
	})
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &CollectionCache{entries: entries, logger: logger}, nil
}

// GetOrBuild returns the cached collection for key, or runs build once and
// stores its result. The bool reports a cache hit.
func (c *CollectionCache) GetOrBuild(
	ctx context.Context,
	key string,
	build func(ctx context.Context) (*motion.Collection, error),
) (*motion.Collection, bool, error) {
	if col, ok := c.entries.Get(key); ok {
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return col, true, nil
	}

	built := false
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// a previous flight may have finished between our Get and Do
		if col, ok := c.entries.Get(key); ok {
			return col, nil
		}
		built = true
		col, err := build(ctx)
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, col)
		return col, nil
	})
	if err != nil {
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		return nil, false, err
	}

	if built {
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
	} else {
		metrics.CacheLookupsTotal.WithLabelValues("shared").Inc()
	}
	return v.(*motion.Collection), !built, nil
}

func (c *CollectionCache) Len() int {
	return c.entries.Len()
}

func (c *CollectionCache) Purge() {
	c.entries.Purge()
}

package resolver

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/specialistvlad/plugasm/internal/model"
)

// DefaultCacheSize is used when a non-positive size is given to NewCached.
const DefaultCacheSize = 1024

// Cached memoizes successful resolutions of another Resolver. The agent and
// server assemblies often share most of their dependencies.
type Cached struct {
	next  Resolver
	cache *lru.Cache[string, Resolution]
}

// NewCached wraps next with an LRU cache of the given size.
func NewCached(next Resolver, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, Resolution](size)
	if err != nil {
		return nil, fmt.Errorf("resolver: create cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

// Resolve implements Resolver.
func (c *Cached) Resolve(ctx context.Context, coord model.Coordinate) (Resolution, error) {
	key := coord.String()
	if res, ok := c.cache.Get(key); ok {
		return res, nil
	}
	res, err := c.next.Resolve(ctx, coord)
	if err != nil {
		return Resolution{}, err
	}
	c.cache.Add(key, res)
	return res, nil
}

// Len returns the number of cached resolutions.
func (c *Cached) Len() int {
	return c.cache.Len()
}

package searchcache

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-query-cache/cache"
)

// Searcher is the expensive lookup being cached: a database query, a remote
// search API, anything that maps a query and its filters to a result.
type Searcher[F any, T any] interface {
	Search(ctx context.Context, query string, filters F) (T, error)
}

// SearchFunc adapts a plain function to Searcher.
type SearchFunc[F any, T any] func(ctx context.Context, query string, filters F) (T, error)

// Search implements Searcher.
func (fn SearchFunc[F, T]) Search(ctx context.Context, query string, filters F) (T, error) {
	return fn(ctx, query, filters)
}

// Interface assertion to ensure CachedSearcher implements Searcher
var _ Searcher[any, any] = (*CachedSearcher[any, any])(nil)

// CachedSearcher decorates a Searcher with a QueryResultCache fast path.
// It is safe for concurrent use.
type CachedSearcher[F any, T any] struct {
	base  Searcher[F, T]
	group singleflight.Group

	mu    sync.Mutex
	local *cache.QueryResultCache[T]
	// generation is bumped by Invalidate so fetches started before it do
	// not write their results back.
	generation uint64

	shared    cache.CacheService
	namespace string
	metrics   Metrics
	logger    zerolog.Logger
}

// New wraps base with the local cache. The local cache must not be used
// directly once handed over, every access goes through the searcher's lock.
func New[F any, T any](base Searcher[F, T], local *cache.QueryResultCache[T], opts ...Option) *CachedSearcher[F, T] {
	o := options{
		metrics: NoopMetrics{},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.namespace == "" {
		o.namespace = namespaceFor[T]()
	}

	return &CachedSearcher[F, T]{
		base:      base,
		local:     local,
		shared:    o.shared,
		namespace: o.namespace,
		metrics:   o.metrics,
		logger:    o.logger.With().Str("search", o.namespace).Logger(),
	}
}

// Namespace returns the name used for metrics labels and shared tier keys.
func (c *CachedSearcher[F, T]) Namespace() string {
	return c.namespace
}

// Search returns the cached result for query and filters, or runs the base
// search and caches its result. Failed searches are never cached.
//
// Concurrent misses for the same descriptor share one base search. A filters
// value that cannot be turned into a key is reported without searching.
func (c *CachedSearcher[F, T]) Search(ctx context.Context, query string, filters F) (T, error) {
	var zero T

	key, err := c.local.Key(query, filters)
	if err != nil {
		return zero, err
	}

	refresh := refreshRequested(ctx)

	var (
		cached T
		hit    bool
	)
	c.mu.Lock()
	gen := c.generation
	if !refresh {
		cached, hit = c.local.GetByKey(key)
	}
	c.mu.Unlock()

	if hit {
		c.metrics.Hit()
		return cached, nil
	}
	c.metrics.Miss()

	result, err, shared := c.group.Do(flightKey(key, gen, refresh), func() (any, error) {
		data, err := c.fetch(ctx, key, query, filters, refresh)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		stale := c.generation != gen
		if !stale {
			c.local.SetByKey(key, data)
		}
		c.mu.Unlock()

		if stale {
			c.dropShared(ctx, key)
		}

		return data, nil
	})
	if err != nil {
		c.metrics.FetchError()
		c.logger.Warn().Err(err).Str("query", query).Msg("search failed")
		return zero, err
	}

	if shared {
		c.logger.Debug().Str("query", query).Msg("joined in-flight search")
	}

	data, _ := result.(T)
	return data, nil
}

// flightKey separates refreshing searches from plain ones and searches
// started before an Invalidate from those started after it.
func flightKey(key string, gen uint64, refresh bool) string {
	flight := strconv.FormatUint(gen, 10) + cache.KeySeparator + key
	if refresh {
		flight += "|refresh"
	}
	return flight
}

func (c *CachedSearcher[F, T]) fetch(ctx context.Context, key, query string, filters F, refresh bool) (T, error) {
	if c.shared == nil {
		return c.base.Search(ctx, query, filters)
	}

	if refresh {
		c.dropShared(ctx, key)
	}

	return cache.GetOrFetch(ctx, c.shared, c.sharedKey(key), func(ctx context.Context) (T, error) {
		return c.base.Search(ctx, query, filters)
	})
}

func (c *CachedSearcher[F, T]) sharedKey(key string) string {
	return c.namespace + cache.KeySeparator + key
}

func (c *CachedSearcher[F, T]) dropShared(ctx context.Context, key string) {
	if c.shared == nil {
		return
	}
	sharedKey := c.sharedKey(key)
	if err := c.shared.Delete(ctx, sharedKey); err != nil {
		c.logger.Warn().Err(err).Str("key", sharedKey).Msg("failed to drop shared entry")
	}
}

// Invalidate drops every cached result of this searcher, locally and in the
// shared tier. Call it after writes that change what searches return.
func (c *CachedSearcher[F, T]) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	c.local.Clear()
	c.mu.Unlock()

	if c.shared != nil {
		if err := c.shared.DeleteByPrefix(ctx, c.namespace+cache.KeySeparator); err != nil {
			return err
		}
	}

	c.logger.Debug().Msg("search cache invalidated")
	return nil
}

// RemoveExpired sweeps expired results from the local cache.
func (c *CachedSearcher[F, T]) RemoveExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.local.RemoveExpired()
}

// Len returns the number of locally cached results.
func (c *CachedSearcher[F, T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.local.Len()
}

package searchcache

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-query-cache/cache"
)

// Option customizes a CachedSearcher.
type Option func(*options)

type options struct {
	namespace string
	shared    cache.CacheService
	metrics   Metrics
	logger    zerolog.Logger
}

// WithNamespace names the searcher. Defaults to the snake_case name of the
// result type.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}

// WithSharedCache fetches misses through a shared CacheService, so results
// are reused by every searcher holding the same service.
func WithSharedCache(shared cache.CacheService) Option {
	return func(o *options) {
		o.shared = shared
	}
}

// WithMetrics records hits, misses and failed searches.
func WithMetrics(metrics Metrics) Option {
	return func(o *options) {
		if metrics != nil {
			o.metrics = metrics
		}
	}
}

// WithLogger sets the logger, zerolog.Nop by default.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

type refreshContextKey struct{}

// WithRefresh marks ctx so searches skip the cached result and store a fresh
// one in its place.
func WithRefresh(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, refreshContextKey{}, true)
}

func refreshRequested(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	refresh, _ := ctx.Value(refreshContextKey{}).(bool)
	return refresh
}

// Package searchcache puts a QueryResultCache in front of an expensive search.
//
// # Overview
//
// A CachedSearcher wraps any Searcher and answers repeated searches with the
// same query and equivalent filters from memory, until the result ages out or
// is pushed out by newer searches. Failed searches are not cached.
//
// # Basic Usage
//
//	local, err := cache.New[talents.Result](cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	searcher := searchcache.New[talents.Filters, talents.Result](store, local,
//		searchcache.WithNamespace("talents"),
//		searchcache.WithLogger(logger),
//	)
//
//	res, err := searcher.Search(ctx, "music", talents.Filters{Location: "Lisbon"})
//
// # Refreshing and Invalidation
//
// WithRefresh marks a context so the next search skips the cached result and
// replaces it. Invalidate drops everything a searcher has cached, which is
// what writers should call after changing the underlying data.
//
// # Shared Tier
//
// WithSharedCache routes misses through a cache.CacheService (sturdyc backed
// when built with cache.NewSharedService). Keys in the shared tier are
// prefixed with the searcher namespace, so Invalidate only touches this
// searcher's entries.
//
// # Metrics and Sweeping
//
// PrometheusCollector exposes hit, miss, fetch error and eviction counters per
// searcher. Sweeper removes expired entries on an interval so idle searchers
// release memory.
package searchcache

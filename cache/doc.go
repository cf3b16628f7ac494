// Package cache provides a bounded, time-expiring cache for search results
// and the key serialization it is built on.
//
// # Overview
//
// QueryResultCache memoizes the result of a search for a query descriptor:
// the free text query plus an arbitrary filters value. It is used as a fast
// path in front of an expensive or rate limited lookup:
//
//	results, err := cache.New[[]Hit](cache.Config{MaxEntryAge: time.Minute, MaxEntries: 200})
//	if err != nil {
//		return err
//	}
//
//	hits, ok, err := results.Get("music", Filters{Category: "dance"})
//	if err != nil {
//		return err // filters could not be encoded
//	}
//	if !ok {
//		hits = search("music", Filters{Category: "dance"})
//		_ = results.Set("music", hits, Filters{Category: "dance"})
//	}
//
// # Lifecycle
//
// Entries are created only by Set. They leave the cache when:
//
//   - Get or RemoveExpired observes they are older than MaxEntryAge
//   - the cache is full and a new key is inserted (the first inserted entry goes)
//   - Delete or Clear is called
//
// Expiry is lazy. Nothing runs in the background, call RemoveExpired on a
// timer to bound memory held by keys that are written once and never read
// again (searchcache.Sweeper does this).
//
// Overwriting an existing key refreshes its timestamp without moving it in
// the eviction order.
//
// # Key Serialization Strategy
//
// Keys are derived from the value content of the filters, never from their
// identity:
//
//   - Strings are quoted, so separators inside values cannot collide
//   - Map entries and struct fields are sorted by name
//   - Struct fields use their json names, so a struct and a map with the same content match
//   - Integers and floats with the same numeric value match (1 and 1.0)
//   - json.Marshaler and encoding.TextMarshaler values render themselves
//   - nil filters, a nil map and an empty map all mean "no filters"
//
// Functions, channels and complex numbers have no value content and are
// rejected with a bad_input error, as is nesting deeper than 64 levels.
//
// Set Config.HashKeys to replace keys with an xxhash digest when filters are
// large.
//
// # Concurrency
//
// QueryResultCache is not safe for concurrent use. Wrap it in a mutex or
// use the searchcache package, which does.
//
// # Shared Tier
//
// NewSharedService returns a CacheService backed by sturdyc. It is sharded,
// safe for concurrent use and coalesces concurrent fetches for the same key,
// at the cost of approximate, percentage based eviction.
package cache

package cache

import "time"

// EvictionReason tells an EvictionHook why an entry left the cache.
type EvictionReason int

const (
	// EvictedCapacity means the entry was the oldest one when a new key was
	// inserted into a full cache.
	EvictedCapacity EvictionReason = iota + 1

	// EvictedExpired means the entry outlived MaxEntryAge.
	EvictedExpired
)

func (r EvictionReason) String() string {
	switch r {
	case EvictedCapacity:
		return "capacity"
	case EvictedExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// EvictionHook observes entries removed by the cache itself. It is not
// called for Delete or Clear.
type EvictionHook func(key string, reason EvictionReason)

// Option customizes a QueryResultCache.
type Option func(*options)

type options struct {
	now     func() time.Time
	keys    KeySerializer
	onEvict EvictionHook
}

// WithClock replaces time.Now as the source of entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithKeySerializer replaces the default key serializer.
func WithKeySerializer(keys KeySerializer) Option {
	return func(o *options) {
		if keys != nil {
			o.keys = keys
		}
	}
}

// WithEvictionHook registers fn to be called on capacity and expiry evictions.
func WithEvictionHook(fn EvictionHook) Option {
	return func(o *options) {
		o.onEvict = fn
	}
}

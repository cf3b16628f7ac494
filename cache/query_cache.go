package cache

import (
	"container/list"
	"time"
)

type entry[T any] struct {
	key        string
	data       T
	insertedAt time.Time
}

// QueryResultCache maps a query descriptor (query text plus filters) to a
// previously computed result. It holds at most MaxEntries results, evicting
// the oldest inserted one to make room, and never returns a result older
// than MaxEntryAge.
//
// A QueryResultCache is not safe for concurrent use. Callers sharing one
// between goroutines must guard it, searchcache.CachedSearcher does so.
//
// Stored values are returned as is on every hit; callers should treat them
// as read-only once written.
type QueryResultCache[T any] struct {
	entries map[string]*list.Element
	// order holds *entry[T] values, front is the first inserted key.
	order *list.List

	cfg     Config
	keys    KeySerializer
	now     func() time.Time
	onEvict EvictionHook
}

// New builds a QueryResultCache. Zero config values take the package
// defaults, negative values return a validation error.
func New[T any](cfg Config, opts ...Option) (*QueryResultCache[T], error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{
		now:  time.Now,
		keys: NewDefaultKeySerializer(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	keys := o.keys
	if cfg.HashKeys {
		keys = NewHashedKeySerializer(keys)
	}

	return &QueryResultCache[T]{
		entries: make(map[string]*list.Element, cfg.MaxEntries),
		order:   list.New(),
		cfg:     cfg,
		keys:    keys,
		now:     o.now,
		onEvict: o.onEvict,
	}, nil
}

// Config returns the effective configuration, defaults applied.
func (c *QueryResultCache[T]) Config() Config {
	return c.cfg
}

// Len returns the number of entries held, expired ones included until they
// are observed.
func (c *QueryResultCache[T]) Len() int {
	return len(c.entries)
}

// Key derives the cache key for a query descriptor.
func (c *QueryResultCache[T]) Key(query string, filters any) (string, error) {
	return c.keys.SerializeKey(query, filters)
}

// Set stores data for the query descriptor. The only error comes from
// filters that cannot be encoded into a key.
func (c *QueryResultCache[T]) Set(query string, data T, filters any) error {
	key, err := c.Key(query, filters)
	if err != nil {
		return err
	}
	c.SetByKey(key, data)
	return nil
}

// SetByKey stores data under a key obtained from Key.
//
// Overwriting an existing key refreshes its timestamp but keeps its place in
// the eviction order. Inserting a new key into a full cache evicts exactly
// one entry, the first one inserted.
func (c *QueryResultCache[T]) SetByKey(key string, data T) {
	now := c.now()

	if el, ok := c.entries[key]; ok {
		ent := el.Value.(*entry[T])
		ent.data = data
		ent.insertedAt = now
		return
	}

	if len(c.entries) >= c.cfg.MaxEntries {
		if oldest := c.order.Front(); oldest != nil {
			c.remove(oldest, EvictedCapacity)
		}
	}

	el := c.order.PushBack(&entry[T]{key: key, data: data, insertedAt: now})
	c.entries[key] = el
}

// Get returns the result stored for the query descriptor. The boolean is
// false when nothing is stored or the stored result expired, in which case
// the expired entry is dropped.
func (c *QueryResultCache[T]) Get(query string, filters any) (T, bool, error) {
	key, err := c.Key(query, filters)
	if err != nil {
		var zero T
		return zero, false, err
	}
	data, ok := c.GetByKey(key)
	return data, ok, nil
}

// GetByKey is Get for a key obtained from Key.
func (c *QueryResultCache[T]) GetByKey(key string) (T, bool) {
	var zero T

	el, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	ent := el.Value.(*entry[T])
	if c.expired(ent, c.now()) {
		c.remove(el, EvictedExpired)
		return zero, false
	}
	return ent.data, true
}

// Delete drops the entry for the query descriptor and reports whether one
// was held.
func (c *QueryResultCache[T]) Delete(query string, filters any) (bool, error) {
	key, err := c.Key(query, filters)
	if err != nil {
		return false, err
	}
	el, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.remove(el, 0)
	return true, nil
}

// Clear removes all entries.
func (c *QueryResultCache[T]) Clear() {
	c.entries = make(map[string]*list.Element, c.cfg.MaxEntries)
	c.order.Init()
}

// RemoveExpired drops every entry older than MaxEntryAge and returns how
// many were removed. Meant to be called periodically, see searchcache.Sweeper.
func (c *QueryResultCache[T]) RemoveExpired() int {
	now := c.now()
	removed := 0

	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if c.expired(el.Value.(*entry[T]), now) {
			c.remove(el, EvictedExpired)
			removed++
		}
		el = next
	}
	return removed
}

func (c *QueryResultCache[T]) expired(ent *entry[T], now time.Time) bool {
	return now.Sub(ent.insertedAt) > c.cfg.MaxEntryAge
}

// remove unlinks el; a zero reason skips the eviction hook.
func (c *QueryResultCache[T]) remove(el *list.Element, reason EvictionReason) {
	ent := c.order.Remove(el).(*entry[T])
	delete(c.entries, ent.key)
	if reason != 0 && c.onEvict != nil {
		c.onEvict(ent.key, reason)
	}
}

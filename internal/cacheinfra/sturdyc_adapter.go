package cacheinfra

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/viccon/sturdyc"
)

// Config holds the configuration for the sturdyc backed shared tier.
type Config struct {
	// Capacity defines the maximum number of entries that the cache can store.
	// Must be greater than 0.
	Capacity int `json:"capacity"`

	// NumShards determines the number of cache shards for concurrent access.
	// Must be greater than 0. Default: 64
	NumShards int `json:"num_shards"`

	// TTL is the default time-to-live for cached search results.
	// Must be greater than 0.
	TTL time.Duration `json:"ttl"`

	// EvictionPercentage specifies what percentage of entries to evict
	// when the cache reaches its capacity. Must be between 1-100.
	EvictionPercentage int `json:"eviction_percentage"`

	// EarlyRefresh configures background refreshes of hot results.
	// If nil, early refresh is disabled.
	EarlyRefresh *EarlyRefreshConfig `json:"early_refresh"`

	// MissingRecordStorage remembers fetches that reported sturdyc.ErrNotFound.
	MissingRecordStorage bool `json:"missing_record_storage"`

	// EvictionInterval sets how often the cache checks for expired entries.
	// Zero value uses the sturdyc default.
	EvictionInterval time.Duration `json:"eviction_interval"`
}

// EarlyRefreshConfig configures early refresh behavior.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration `json:"min_async_refresh_time"`
	MaxAsyncRefreshTime time.Duration `json:"max_async_refresh_time"`
	SyncRefreshTime     time.Duration `json:"sync_refresh_time"`
	RetryBaseDelay      time.Duration `json:"retry_base_delay"`
}

// Validate implements validation.Validatable so nested checks run as part
// of Config.Validate.
func (e EarlyRefreshConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.MinAsyncRefreshTime, validation.Min(time.Duration(0))),
		validation.Field(&e.MaxAsyncRefreshTime, validation.Min(e.MinAsyncRefreshTime)),
		validation.Field(&e.SyncRefreshTime, validation.Min(time.Duration(0))),
		validation.Field(&e.RetryBaseDelay, validation.Min(time.Duration(0))),
	)
}

// DefaultConfig returns a Config sized for search results: a few thousand
// result pages shared by every searcher, no early refresh.
func DefaultConfig() Config {
	return Config{
		Capacity:           5000,
		NumShards:          64,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
	}
}

// ToSturdycOptions converts the optional parts of Config to sturdyc options.
// Capacity, NumShards, TTL and EvictionPercentage go to sturdyc.New directly.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EarlyRefresh != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			c.EarlyRefresh.MinAsyncRefreshTime,
			c.EarlyRefresh.MaxAsyncRefreshTime,
			c.EarlyRefresh.SyncRefreshTime,
			c.EarlyRefresh.RetryBaseDelay,
		))
	}

	if c.MissingRecordStorage {
		options = append(options, sturdyc.WithMissingRecordStorage())
	}

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if err := goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&c,
			validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
			validation.Field(&c.NumShards, validation.Required, validation.Min(1)),
			validation.Field(&c.TTL, validation.Required, validation.Min(time.Millisecond)),
			validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
			validation.Field(&c.EarlyRefresh),
			validation.Field(&c.EvictionInterval, validation.Min(time.Duration(0))),
		)
	}, "invalid shared cache config"); err != nil {
		return err
	}
	return nil
}

// SturdycService wraps a sturdyc client. Values are boxed so one client can
// back searchers with different result types, nil results included.
type SturdycService struct {
	client *sturdyc.Client[*entry]
}

// entry boxes a fetched value. sturdyc type-asserts every fetch result and
// a bare nil interface fails that assertion, hiding the fetch error.
type entry struct {
	value any
}

// NewSturdycService validates cfg and initializes a sturdyc client with it.
func NewSturdycService(cfg Config) (*SturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[*entry](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &SturdycService{client: client}, nil
}

// GetOrFetch returns the value stored under key, calling fetchFn on a miss.
// Concurrent misses for the same key share a single fetchFn call.
func (s *SturdycService) GetOrFetch(ctx context.Context, key string, fetchFn func(context.Context) (any, error)) (any, error) {
	if fetchFn == nil {
		return nil, goerrors.New("fetch function cannot be nil", goerrors.CategoryBadInput).
			WithTextCode("NIL_FETCH_FN")
	}

	boxed, err := s.client.GetOrFetch(ctx, key, func(ctx context.Context) (*entry, error) {
		value, err := fetchFn(ctx)
		return &entry{value: value}, err
	})
	if err != nil {
		return nil, err
	}
	if boxed == nil {
		return nil, nil
	}
	return boxed.value, nil
}

// Delete removes a single entry.
func (s *SturdycService) Delete(_ context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix. Searchers
// namespace their keys so this drops one searcher's results.
func (s *SturdycService) DeleteByPrefix(_ context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}

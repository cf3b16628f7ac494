package cache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-query-cache/internal/cacheinfra"
)

const (
	// DefaultMaxEntryAge is used when Config.MaxEntryAge is left at zero.
	DefaultMaxEntryAge = 5 * time.Minute

	// DefaultMaxEntries is used when Config.MaxEntries is left at zero.
	DefaultMaxEntries = 100
)

// Config controls the bounds of a QueryResultCache.
//
// Zero values mean "unspecified" and are replaced by the defaults when the
// cache is built. Negative values are rejected by Validate.
type Config struct {
	// MaxEntryAge is how long an entry is served after it was written.
	MaxEntryAge time.Duration `json:"max_entry_age" yaml:"max_entry_age"`

	// MaxEntries bounds the number of entries held at once.
	MaxEntries int `json:"max_entries" yaml:"max_entries"`

	// HashKeys replaces readable keys with a fixed size digest.
	HashKeys bool `json:"hash_keys" yaml:"hash_keys"`
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() Config {
	return Config{
		MaxEntryAge: DefaultMaxEntryAge,
		MaxEntries:  DefaultMaxEntries,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if err := goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&c,
			validation.Field(&c.MaxEntryAge, validation.Min(time.Millisecond)),
			validation.Field(&c.MaxEntries, validation.Min(1)),
		)
	}, "invalid query cache config"); err != nil {
		return err
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.MaxEntryAge == 0 {
		c.MaxEntryAge = DefaultMaxEntryAge
	}
	if c.MaxEntries == 0 {
		c.MaxEntries = DefaultMaxEntries
	}
	return c
}

// SharedConfig exposes the options of the shared, sharded cache tier used by
// searchcache when results should be reused across searchers.
type SharedConfig struct {
	Capacity             int                 `json:"capacity" yaml:"capacity"`
	NumShards            int                 `json:"num_shards" yaml:"num_shards"`
	TTL                  time.Duration       `json:"ttl" yaml:"ttl"`
	EvictionPercentage   int                 `json:"eviction_percentage" yaml:"eviction_percentage"`
	EarlyRefresh         *EarlyRefreshConfig `json:"early_refresh" yaml:"early_refresh"`
	MissingRecordStorage bool                `json:"missing_record_storage" yaml:"missing_record_storage"`
	EvictionInterval     time.Duration       `json:"eviction_interval" yaml:"eviction_interval"`
}

// EarlyRefreshConfig mirrors the underlying sturdyc early refresh options.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration `json:"min_async_refresh_time" yaml:"min_async_refresh_time"`
	MaxAsyncRefreshTime time.Duration `json:"max_async_refresh_time" yaml:"max_async_refresh_time"`
	SyncRefreshTime     time.Duration `json:"sync_refresh_time" yaml:"sync_refresh_time"`
	RetryBaseDelay      time.Duration `json:"retry_base_delay" yaml:"retry_base_delay"`
}

// DefaultSharedConfig returns a SharedConfig populated with sensible defaults.
func DefaultSharedConfig() SharedConfig {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// Validate checks whether the shared tier configuration values are valid.
func (c SharedConfig) Validate() error {
	return c.toInternal().Validate()
}

// NewSharedService constructs the shared cache service using the provided configuration.
func NewSharedService(cfg SharedConfig) (CacheService, error) {
	svc, err := cacheinfra.NewSturdycService(cfg.toInternal())
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func (c SharedConfig) toInternal() cacheinfra.Config {
	var early *cacheinfra.EarlyRefreshConfig
	if c.EarlyRefresh != nil {
		early = &cacheinfra.EarlyRefreshConfig{
			MinAsyncRefreshTime: c.EarlyRefresh.MinAsyncRefreshTime,
			MaxAsyncRefreshTime: c.EarlyRefresh.MaxAsyncRefreshTime,
			SyncRefreshTime:     c.EarlyRefresh.SyncRefreshTime,
			RetryBaseDelay:      c.EarlyRefresh.RetryBaseDelay,
		}
	}

	return cacheinfra.Config{
		Capacity:             c.Capacity,
		NumShards:            c.NumShards,
		TTL:                  c.TTL,
		EvictionPercentage:   c.EvictionPercentage,
		EarlyRefresh:         early,
		MissingRecordStorage: c.MissingRecordStorage,
		EvictionInterval:     c.EvictionInterval,
	}
}

func convertFromInternal(cfg cacheinfra.Config) SharedConfig {
	var early *EarlyRefreshConfig
	if cfg.EarlyRefresh != nil {
		early = &EarlyRefreshConfig{
			MinAsyncRefreshTime: cfg.EarlyRefresh.MinAsyncRefreshTime,
			MaxAsyncRefreshTime: cfg.EarlyRefresh.MaxAsyncRefreshTime,
			SyncRefreshTime:     cfg.EarlyRefresh.SyncRefreshTime,
			RetryBaseDelay:      cfg.EarlyRefresh.RetryBaseDelay,
		}
	}

	return SharedConfig{
		Capacity:             cfg.Capacity,
		NumShards:            cfg.NumShards,
		TTL:                  cfg.TTL,
		EvictionPercentage:   cfg.EvictionPercentage,
		EarlyRefresh:         early,
		MissingRecordStorage: cfg.MissingRecordStorage,
		EvictionInterval:     cfg.EvictionInterval,
	}
}

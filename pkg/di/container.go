package di

import (
	"context"
	"sort"

	goerrors "github.com/goliatone/go-errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-query-cache/cache"
	"github.com/goliatone/go-query-cache/searchcache"
)

// registeredSearcher is the untyped view of a CachedSearcher the container
// needs for bulk operations.
type registeredSearcher interface {
	Namespace() string
	Len() int
	RemoveExpired() int
	Invalidate(ctx context.Context) error
}

// Container provides dependency injection for search cache components.
// It owns the singletons every searcher shares (key serializer, optional
// shared tier, metrics collector, sweeper) and keeps a registry of the
// searchers it built so they can be invalidated by name.
type Container struct {
	config    Config
	keys      cache.KeySerializer
	shared    cache.CacheService
	collector *searchcache.PrometheusCollector
	sweeper   *searchcache.Sweeper
	logger    zerolog.Logger

	registerer   prometheus.Registerer
	cacheOptions []cache.Option
	searchers    *xsync.MapOf[string, registeredSearcher]
}

// Option customizes a Container.
type Option func(*Container)

// WithLogger sets the logger handed to every searcher.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Container) {
		c.logger = logger
	}
}

// WithRegisterer enables Prometheus metrics, registered with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Container) {
		c.registerer = reg
	}
}

// WithKeySerializer replaces the default canonical key serializer.
func WithKeySerializer(keys cache.KeySerializer) Option {
	return func(c *Container) {
		if keys != nil {
			c.keys = keys
		}
	}
}

// WithCacheOptions appends options to every local cache the container
// builds, e.g. cache.WithClock.
func WithCacheOptions(opts ...cache.Option) Option {
	return func(c *Container) {
		c.cacheOptions = append(c.cacheOptions, opts...)
	}
}

// NewContainer creates a new DI container with the provided configuration.
func NewContainer(config Config, opts ...Option) (*Container, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		config:    config,
		keys:      cache.NewDefaultKeySerializer(),
		logger:    zerolog.Nop(),
		searchers: xsync.NewMapOf[string, registeredSearcher](),
	}
	for _, opt := range opts {
		opt(c)
	}

	if config.Shared != nil {
		shared, err := cache.NewSharedService(*config.Shared)
		if err != nil {
			return nil, err
		}
		c.shared = shared
	}

	if c.registerer != nil {
		collector, err := searchcache.NewPrometheusCollector(c.registerer)
		if err != nil {
			return nil, err
		}
		c.collector = collector
	}

	c.sweeper = searchcache.NewSweeper(config.SweepInterval, c.logger)

	c.logger.Debug().
		Int("max_entries", config.Local.MaxEntries).
		Dur("max_entry_age", config.Local.MaxEntryAge).
		Bool("shared", c.shared != nil).
		Msg("search cache container ready")

	return c, nil
}

// NewContainerWithDefaults creates a new DI container using default configuration.
func NewContainerWithDefaults() (*Container, error) {
	return NewContainer(DefaultConfig())
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() Config {
	return c.config
}

// KeySerializer returns the key serializer used by every local cache.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keys
}

// CacheService returns the shared tier, or nil when none is configured.
func (c *Container) CacheService() cache.CacheService {
	return c.shared
}

// Sweeper returns the sweeper that covers every registered searcher. The
// caller decides whether to Run it.
func (c *Container) Sweeper() *searchcache.Sweeper {
	return c.sweeper
}

// NewCachedSearcher builds a cached searcher around base and registers it
// under name. Names must be unique within a container.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewCachedSearcher[talents.Filters, talents.Result](container, "talents", store)
func NewCachedSearcher[F any, T any](c *Container, name string, base searchcache.Searcher[F, T]) (*searchcache.CachedSearcher[F, T], error) {
	if name == "" {
		return nil, goerrors.New("searcher name is required", goerrors.CategoryBadInput).
			WithTextCode("MISSING_SEARCHER_NAME")
	}
	if base == nil {
		return nil, goerrors.New("base searcher is required", goerrors.CategoryBadInput).
			WithTextCode("NIL_SEARCHER")
	}
	if _, exists := c.searchers.Load(name); exists {
		return nil, duplicateSearcher(name)
	}

	var metrics searchcache.Metrics = searchcache.NoopMetrics{}
	if c.collector != nil {
		metrics = c.collector.ForSearch(name)
	}

	cacheOpts := append([]cache.Option{
		cache.WithKeySerializer(c.keys),
		cache.WithEvictionHook(searchcache.EvictionHook(metrics)),
	}, c.cacheOptions...)

	local, err := cache.New[T](c.config.Local, cacheOpts...)
	if err != nil {
		return nil, err
	}

	opts := []searchcache.Option{
		searchcache.WithNamespace(name),
		searchcache.WithMetrics(metrics),
		searchcache.WithLogger(c.logger),
	}
	if c.shared != nil {
		opts = append(opts, searchcache.WithSharedCache(c.shared))
	}

	searcher := searchcache.New(base, local, opts...)
	if _, loaded := c.searchers.LoadOrStore(name, searcher); loaded {
		return nil, duplicateSearcher(name)
	}
	c.sweeper.Add(searcher)

	return searcher, nil
}

func duplicateSearcher(name string) error {
	return goerrors.New("searcher already registered: "+name, goerrors.CategoryConflict).
		WithTextCode("DUPLICATE_SEARCHER").
		WithMetadata(map[string]any{"name": name})
}

// Invalidate drops every cached result of the named searcher.
func (c *Container) Invalidate(ctx context.Context, name string) error {
	searcher, ok := c.searchers.Load(name)
	if !ok {
		return goerrors.New("searcher not registered: "+name, goerrors.CategoryNotFound).
			WithTextCode("SEARCHER_NOT_FOUND").
			WithMetadata(map[string]any{"name": name})
	}
	return searcher.Invalidate(ctx)
}

// InvalidateAll invalidates every registered searcher, returning the joined
// errors of those that failed.
func (c *Container) InvalidateAll(ctx context.Context) error {
	var errs []error
	c.searchers.Range(func(name string, searcher registeredSearcher) bool {
		if err := searcher.Invalidate(ctx); err != nil {
			errs = append(errs, err)
		}
		return true
	})
	return goerrors.Join(errs...)
}

// Names returns the registered searcher names in sorted order.
func (c *Container) Names() []string {
	names := make([]string, 0, c.searchers.Size())
	c.searchers.Range(func(name string, _ registeredSearcher) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// Len returns the number of locally cached results held by the named
// searcher, and false when no such searcher exists.
func (c *Container) Len(name string) (int, bool) {
	searcher, ok := c.searchers.Load(name)
	if !ok {
		return 0, false
	}
	return searcher.Len(), true
}

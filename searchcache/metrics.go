package searchcache

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-query-cache/cache"
)

// Metrics receives cache outcomes for one searcher.
type Metrics interface {
	Hit()
	Miss()
	FetchError()
	Eviction(reason cache.EvictionReason)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Hit() {}
func (NoopMetrics) Miss() {}
func (NoopMetrics) FetchError() {}
func (NoopMetrics) Eviction(cache.EvictionReason) {}

// EvictionHook forwards local cache evictions to m. Pass it to cache.New via
// cache.WithEvictionHook so evictions show up next to hits and misses.
func EvictionHook(m Metrics) cache.EvictionHook {
	return func(_ string, reason cache.EvictionReason) {
		m.Eviction(reason)
	}
}

const metricsNamespace = "query_cache"

// PrometheusCollector holds the counter vectors shared by all searchers.
// Each searcher gets its own label set through ForSearch.
type PrometheusCollector struct {
	hits        *prometheus.CounterVec
	misses      *prometheus.CounterVec
	fetchErrors *prometheus.CounterVec
	evictions   *prometheus.CounterVec
}

// NewPrometheusCollector creates the counters and registers them with reg.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	c := &PrometheusCollector{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "hits_total",
			Help:      "Searches answered from the local query cache.",
		}, []string{"search"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "misses_total",
			Help:      "Searches that had to run the underlying search.",
		}, []string{"search"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fetch_errors_total",
			Help:      "Underlying searches that returned an error.",
		}, []string{"search"}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "evictions_total",
			Help:      "Entries removed from the local query cache.",
		}, []string{"search", "reason"}),
	}

	if reg == nil {
		return c, nil
	}

	for _, collector := range []prometheus.Collector{c.hits, c.misses, c.fetchErrors, c.evictions} {
		if err := reg.Register(collector); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to register query cache metrics")
		}
	}

	return c, nil
}

// ForSearch returns Metrics labelled with the searcher's namespace.
func (c *PrometheusCollector) ForSearch(namespace string) Metrics {
	return &searchMetrics{
		hits:        c.hits.WithLabelValues(namespace),
		misses:      c.misses.WithLabelValues(namespace),
		fetchErrors: c.fetchErrors.WithLabelValues(namespace),
		evictions:   c.evictions.MustCurryWith(prometheus.Labels{"search": namespace}),
	}
}

type searchMetrics struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	fetchErrors prometheus.Counter
	evictions   *prometheus.CounterVec
}

func (m *searchMetrics) Hit() { m.hits.Inc() }
func (m *searchMetrics) Miss() { m.misses.Inc() }
func (m *searchMetrics) FetchError() { m.fetchErrors.Inc() }

func (m *searchMetrics) Eviction(reason cache.EvictionReason) {
	m.evictions.WithLabelValues(reason.String()).Inc()
}

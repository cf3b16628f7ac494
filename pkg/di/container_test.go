package di

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-query-cache/cache"
	"github.com/goliatone/go-query-cache/searchcache"
)

type venueFilters struct {
	City string `json:"city,omitempty"`
}

func echoSearcher() searchcache.Searcher[venueFilters, []string] {
	return searchcache.SearchFunc[venueFilters, []string](func(ctx context.Context, query string, filters venueFilters) ([]string, error) {
		return []string{query, filters.City}, nil
	})
}

func TestNewContainer(t *testing.T) {
	config := Config{
		Local: cache.Config{
			MaxEntryAge: 30 * time.Second,
			MaxEntries:  50,
		},
		Shared: &cache.SharedConfig{
			Capacity:           1000,
			NumShards:          16,
			TTL:                5 * time.Minute,
			EvictionPercentage: 10,
			EarlyRefresh: &cache.EarlyRefreshConfig{
				MinAsyncRefreshTime: 10 * time.Second,
				MaxAsyncRefreshTime: 20 * time.Second,
				SyncRefreshTime:     30 * time.Second,
				RetryBaseDelay:      100 * time.Millisecond,
			},
			MissingRecordStorage: true,
		},
		SweepInterval: 10 * time.Second,
	}

	container, err := NewContainer(config)
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}

	if container == nil {
		t.Fatal("NewContainer() returned nil container")
	}

	if container.CacheService() == nil {
		t.Error("Container should have a shared cache service when configured")
	}

	if container.KeySerializer() == nil {
		t.Error("Container should have a non-nil key serializer")
	}

	if container.Sweeper() == nil {
		t.Error("Container should have a sweeper")
	}

	storedConfig := container.Config()
	if storedConfig.Local.MaxEntries != config.Local.MaxEntries {
		t.Errorf("Expected max entries %d, got %d", config.Local.MaxEntries, storedConfig.Local.MaxEntries)
	}

	if storedConfig.SweepInterval != config.SweepInterval {
		t.Errorf("Expected sweep interval %v, got %v", config.SweepInterval, storedConfig.SweepInterval)
	}
}

func TestNewContainerWithDefaults(t *testing.T) {
	container, err := NewContainerWithDefaults()
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}

	config := container.Config()
	defaultConfig := DefaultConfig()

	if config.Local != defaultConfig.Local {
		t.Errorf("Expected default local config %+v, got %+v", defaultConfig.Local, config.Local)
	}

	if container.CacheService() != nil {
		t.Error("Default container should not have a shared tier")
	}

	if len(container.Names()) != 0 {
		t.Errorf("Expected no registered searchers, got %v", container.Names())
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{
			name:   "negative max entries",
			config: Config{Local: cache.Config{MaxEntries: -1}},
		},
		{
			name:   "negative sweep interval",
			config: Config{SweepInterval: -time.Second},
		},
		{
			name: "invalid shared tier",
			config: Config{Shared: &cache.SharedConfig{
				Capacity:           0,
				NumShards:          16,
				TTL:                time.Minute,
				EvictionPercentage: 10,
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewContainer(tt.config)
			if err == nil {
				t.Fatal("NewContainer() should fail with invalid config")
			}
			if !goerrors.IsValidation(err) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestContainerSingletonBehavior(t *testing.T) {
	container, err := NewContainerWithDefaults()
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}

	if container.KeySerializer() != container.KeySerializer() {
		t.Error("KeySerializer() should return the same instance (singleton behavior)")
	}

	if container.Sweeper() != container.Sweeper() {
		t.Error("Sweeper() should return the same instance (singleton behavior)")
	}
}

func TestKeySerializerIntegration(t *testing.T) {
	container, err := NewContainerWithDefaults()
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}

	keySerializer := container.KeySerializer()

	testCases := []struct {
		name     string
		query    string
		filters  any
		expected string
	}{
		{
			name:     "no filters",
			query:    "music",
			filters:  nil,
			expected: `"music"::{}`,
		},
		{
			name:     "map filters sorted",
			query:    "music",
			filters:  map[string]any{"limit": 10, "category": "dance"},
			expected: `"music"::{"category":"dance","limit":10}`,
		},
		{
			name:     "struct filters use json names",
			query:    "jazz",
			filters:  venueFilters{City: "Lisbon"},
			expected: `"jazz"::{"city":"Lisbon"}`,
		},
		{
			name:     "empty query",
			query:    "",
			filters:  map[string]any{},
			expected: `""::{}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := keySerializer.SerializeKey(tc.query, tc.filters)
			if err != nil {
				t.Fatalf("SerializeKey() failed: %v", err)
			}
			if result != tc.expected {
				t.Errorf("Expected key %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestNewCachedSearcher_Registry(t *testing.T) {
	container, err := NewContainerWithDefaults()
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}

	venues, err := NewCachedSearcher(container, "venues", echoSearcher())
	if err != nil {
		t.Fatalf("NewCachedSearcher() failed: %v", err)
	}
	if venues.Namespace() != "venues" {
		t.Errorf("Expected namespace venues, got %q", venues.Namespace())
	}

	if _, err := NewCachedSearcher(container, "artists", echoSearcher()); err != nil {
		t.Fatalf("NewCachedSearcher() failed: %v", err)
	}

	names := container.Names()
	if len(names) != 2 || names[0] != "artists" || names[1] != "venues" {
		t.Errorf("Expected sorted names [artists venues], got %v", names)
	}

	_, err = NewCachedSearcher(container, "venues", echoSearcher())
	if !goerrors.IsCategory(err, goerrors.CategoryConflict) {
		t.Errorf("Expected conflict error for duplicate name, got %v", err)
	}

	_, err = NewCachedSearcher(container, "", echoSearcher())
	if !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		t.Errorf("Expected bad input error for empty name, got %v", err)
	}

	_, err = NewCachedSearcher[venueFilters, []string](container, "nil-base", nil)
	if !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		t.Errorf("Expected bad input error for nil base, got %v", err)
	}
}

func TestContainer_Invalidate(t *testing.T) {
	container, err := NewContainerWithDefaults()
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}

	ctx := context.Background()
	venues, err := NewCachedSearcher(container, "venues", echoSearcher())
	if err != nil {
		t.Fatalf("NewCachedSearcher() failed: %v", err)
	}
	artists, err := NewCachedSearcher(container, "artists", echoSearcher())
	if err != nil {
		t.Fatalf("NewCachedSearcher() failed: %v", err)
	}

	for _, q := range []string{"a", "b"} {
		if _, err := venues.Search(ctx, q, venueFilters{}); err != nil {
			t.Fatalf("Search() failed: %v", err)
		}
		if _, err := artists.Search(ctx, q, venueFilters{}); err != nil {
			t.Fatalf("Search() failed: %v", err)
		}
	}

	if err := container.Invalidate(ctx, "venues"); err != nil {
		t.Fatalf("Invalidate() failed: %v", err)
	}
	if n, _ := container.Len("venues"); n != 0 {
		t.Errorf("Expected venues to be empty, got %d", n)
	}
	if n, _ := container.Len("artists"); n != 2 {
		t.Errorf("Expected artists to keep 2 entries, got %d", n)
	}

	if err := container.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll() failed: %v", err)
	}
	if n, _ := container.Len("artists"); n != 0 {
		t.Errorf("Expected artists to be empty, got %d", n)
	}

	err = container.Invalidate(ctx, "missing")
	if !goerrors.IsCategory(err, goerrors.CategoryNotFound) {
		t.Errorf("Expected not found error, got %v", err)
	}

	if _, ok := container.Len("missing"); ok {
		t.Error("Expected Len to report unknown searcher")
	}
}

package cache

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

// mockCacheService for testing GetOrFetch function
type mockCacheService struct {
	result  any
	err     error
	fetched bool
}

func (m *mockCacheService) GetOrFetch(ctx context.Context, key string, fetchFn func(context.Context) (any, error)) (any, error) {
	if m.result == nil && m.err == nil {
		m.fetched = true
		return fetchFn(ctx)
	}
	return m.result, m.err
}

func (m *mockCacheService) Delete(ctx context.Context, key string) error {
	return nil
}

func (m *mockCacheService) DeleteByPrefix(ctx context.Context, prefix string) error {
	return nil
}

func TestGetOrFetch_NilInterface(t *testing.T) {
	mock := &mockCacheService{}

	type SomeInterface interface {
		DoSomething() string
	}

	result, err := GetOrFetch[SomeInterface](context.Background(), mock, "test-key", func(ctx context.Context) (SomeInterface, error) {
		return nil, nil
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
	if !mock.fetched {
		t.Error("expected fetch function to be called")
	}
}

func TestGetOrFetch_TypeAssertionFailure(t *testing.T) {
	mock := &mockCacheService{result: "wrong-type"}

	result, err := GetOrFetch[int](context.Background(), mock, "test-key", func(ctx context.Context) (int, error) {
		return 42, nil
	})

	if !errors.Is(err, ErrInvalidResultType) {
		t.Errorf("expected ErrInvalidResultType but got: %v", err)
	}
	var typed *goerrors.Error
	if !goerrors.As(err, &typed) {
		t.Fatalf("expected a go-errors error but got: %T", err)
	}
	if typed.Category != goerrors.CategoryInternal || typed.TextCode != "INVALID_RESULT_TYPE" {
		t.Errorf("expected internal INVALID_RESULT_TYPE but got: %s %s", typed.Category, typed.TextCode)
	}
	if typed.Metadata["key"] != "test-key" || typed.Metadata["got"] != "string" {
		t.Errorf("unexpected metadata: %v", typed.Metadata)
	}
	if result != 0 {
		t.Errorf("expected zero value (0) but got: %v", result)
	}
}

func TestGetOrFetch_FetchError(t *testing.T) {
	fetchErr := errors.New("database unavailable")
	mock := &mockCacheService{}

	_, err := GetOrFetch[[]string](context.Background(), mock, "test-key", func(ctx context.Context) ([]string, error) {
		return nil, fetchErr
	})

	if !errors.Is(err, fetchErr) {
		t.Errorf("expected fetch error but got: %v", err)
	}
}

func TestGetOrFetch_ValidResult(t *testing.T) {
	expectedValue := []string{"a", "b"}
	mock := &mockCacheService{result: expectedValue}

	result, err := GetOrFetch[[]string](context.Background(), mock, "test-key", func(ctx context.Context) ([]string, error) {
		return nil, errors.New("should not be called")
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if len(result) != 2 || result[0] != "a" {
		t.Errorf("expected %v but got: %v", expectedValue, result)
	}
}

func TestSharedConfig_DefaultsValidate(t *testing.T) {
	cfg := DefaultSharedConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default shared config to be valid: %v", err)
	}

	cfg.Capacity = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected zero capacity to be rejected")
	}
}

func TestNewSharedService(t *testing.T) {
	svc, err := NewSharedService(SharedConfig{
		Capacity:           100,
		NumShards:          4,
		TTL:                0,
		EvictionPercentage: 10,
	})
	if err == nil || svc != nil {
		t.Fatal("expected invalid TTL to be rejected")
	}

	svc, err = NewSharedService(DefaultSharedConfig())
	if err != nil {
		t.Fatalf("NewSharedService() failed: %v", err)
	}

	calls := 0
	for i := 0; i < 3; i++ {
		got, err := GetOrFetch(context.Background(), svc, "talents::music", func(ctx context.Context) (int, error) {
			calls++
			return 7, nil
		})
		if err != nil || got != 7 {
			t.Fatalf("unexpected result %v, %v", got, err)
		}
	}
	if calls != 1 {
		t.Errorf("expected a single fetch, got %d", calls)
	}
}

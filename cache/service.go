package cache

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// ErrInvalidResultType is returned by GetOrFetch when the shared tier holds a
// value of a different type than the caller asked for.
var ErrInvalidResultType = goerrors.New("cached value has an unexpected type", goerrors.CategoryInternal).
	WithTextCode("INVALID_RESULT_TYPE")

// KeySerializer builds a cache key from a query descriptor.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(query string, filters any) (string, error)
}

// FetchFn is the function signature CacheService expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService exposes the read-through operations of the shared tier.
// It is exported so that callers can provide alternate backends.
type CacheService interface {
	GetOrFetch(ctx context.Context, key string, fetchFn func(context.Context) (any, error)) (any, error)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// GetOrFetch is a type-safe wrapper function that provides generic support for CacheService.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T

	result, err := service.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetchFn(ctx)
	})
	if err != nil {
		return zero, err
	}

	// a nil interface carries no type information, T may be an interface or pointer
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		got := fmt.Sprintf("%T", result)
		mismatch := goerrors.New("shared tier returned "+got, goerrors.CategoryInternal).
			WithTextCode(ErrInvalidResultType.TextCode).
			WithMetadata(map[string]any{"key": key, "got": got})
		mismatch.Source = ErrInvalidResultType
		return zero, mismatch
	}
	return typed, nil
}

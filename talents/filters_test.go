package talents

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-query-cache/cache"
)

func TestFilters_Validate(t *testing.T) {
	tests := []struct {
		name      string
		filters   Filters
		wantField string
	}{
		{name: "zero value", filters: Filters{}},
		{name: "max limit", filters: Filters{Limit: MaxLimit}},
		{name: "limit too large", filters: Filters{Limit: MaxLimit + 1}, wantField: "limit"},
		{name: "negative limit", filters: Filters{Limit: -1}, wantField: "limit"},
		{name: "negative offset", filters: Filters{Offset: -5}, wantField: "offset"},
		{name: "negative rate", filters: Filters{MaxHourlyRate: -0.5}, wantField: "max_hourly_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filters.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, goerrors.IsValidation(err))

			fields, ok := goerrors.GetValidationErrors(err)
			require.True(t, ok)
			require.NotEmpty(t, fields)
			assert.Equal(t, tt.wantField, fields[0].Field)
		})
	}
}

func TestFilters_Criteria(t *testing.T) {
	assert.Len(t, Filters{}.Criteria(""), 1, "paging is always applied")
	assert.Len(t, Filters{}.Criteria("  "), 1)
	assert.Len(t, Filters{}.Criteria("ada"), 2)

	all := Filters{
		Category:      "music",
		Location:      "Lisbon",
		MaxHourlyRate: 100,
		AvailableOnly: true,
	}
	assert.Len(t, all.Criteria("ada"), 6)
}

func TestFilters_CacheKeys(t *testing.T) {
	keys := cache.NewDefaultKeySerializer()

	a, err := keys.SerializeKey("music", Filters{Category: "dance", Limit: 10})
	require.NoError(t, err)
	b, err := keys.SerializeKey("music", map[string]any{"limit": 10, "category": "dance"})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := keys.SerializeKey("music", Filters{Category: "dance", Limit: 20})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

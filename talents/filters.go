package talents

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Filters narrow a talent search. The zero value matches every profile.
type Filters struct {
	Category      string  `json:"category,omitempty"`
	Location      string  `json:"location,omitempty"`
	MaxHourlyRate float64 `json:"max_hourly_rate,omitempty"`
	AvailableOnly bool    `json:"available_only,omitempty"`
	Limit         int     `json:"limit,omitempty"`
	Offset        int     `json:"offset,omitempty"`
}

// Validate rejects out of range paging and negative rates.
func (f Filters) Validate() error {
	if err := goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&f,
			validation.Field(&f.MaxHourlyRate, validation.Min(0.0)),
			validation.Field(&f.Limit, validation.Min(0), validation.Max(MaxLimit)),
			validation.Field(&f.Offset, validation.Min(0)),
		)
	}, "invalid talent filters"); err != nil {
		return err
	}
	return nil
}

// Criteria translates the query and filters into select criteria. The query
// is matched case-insensitively against profile names.
func (f Filters) Criteria(query string) []repository.SelectCriteria {
	var criteria []repository.SelectCriteria

	if q := strings.TrimSpace(query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("LOWER(?TableAlias.name) LIKE ?", pattern)
		})
	}

	if f.Category != "" {
		category := f.Category
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("?TableAlias.category = ?", category)
		})
	}

	if f.Location != "" {
		location := f.Location
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("?TableAlias.location = ?", location)
		})
	}

	if f.MaxHourlyRate > 0 {
		rate := f.MaxHourlyRate
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("?TableAlias.hourly_rate <= ?", rate)
		})
	}

	if f.AvailableOnly {
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("?TableAlias.available = ?", true)
		})
	}

	limit := f.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	offset := f.Offset

	criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
		return sq.
			OrderExpr("?TableAlias.name ASC").
			OrderExpr("?TableAlias.id ASC").
			Limit(limit).
			Offset(offset)
	})

	return criteria
}

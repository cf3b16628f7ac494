package talents

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Profile is a searchable talent listing.
type Profile struct {
	bun.BaseModel `bun:"table:talent_profiles,alias:tp"`

	ID         string    `bun:"id,pk" json:"id"`
	Name       string    `bun:"name,notnull" json:"name"`
	Category   string    `bun:"category,notnull" json:"category"`
	Location   string    `bun:"location" json:"location"`
	HourlyRate float64   `bun:"hourly_rate" json:"hourly_rate"`
	Available  bool      `bun:"available" json:"available"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at"`
}

// Validate checks the fields required to store a profile.
func (p *Profile) Validate() error {
	if err := goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(p,
			validation.Field(&p.Name, validation.Required, validation.Length(1, 200)),
			validation.Field(&p.Category, validation.Required),
			validation.Field(&p.HourlyRate, validation.Min(0.0)),
		)
	}, "invalid talent profile"); err != nil {
		return err
	}
	return nil
}

// Result is one page of matching profiles and the total number of matches.
type Result struct {
	Profiles []*Profile `json:"profiles"`
	Total    int        `json:"total"`
}

package talents

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-query-cache/searchcache"
)

// Lister lists profiles matching criteria, along with the total match count.
// A go-repository-bun Repository[*Profile] satisfies it.
type Lister interface {
	List(ctx context.Context, criteria ...repository.SelectCriteria) ([]*Profile, int, error)
}

type bunLister struct {
	db bun.IDB
}

// NewBunLister lists profiles straight from db.
func NewBunLister(db bun.IDB) Lister {
	return &bunLister{db: db}
}

func (l *bunLister) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]*Profile, int, error) {
	records := []*Profile{}

	q := l.db.NewSelect().Model(&records)
	for _, c := range criteria {
		q = c(q)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, goerrors.Wrap(err, goerrors.CategoryExternal, "failed to list talent profiles").
			WithTextCode("TALENT_LIST_FAILED")
	}
	return records, total, nil
}

// Interface assertion to ensure Store can be put behind a search cache
var _ searchcache.Searcher[Filters, Result] = (*Store)(nil)

// Store persists profiles and answers searches over them.
type Store struct {
	db     bun.IDB
	lister Lister
	logger zerolog.Logger
	now    func() time.Time
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithLister replaces the default bun lister, e.g. with a repository.
func WithLister(lister Lister) StoreOption {
	return func(s *Store) {
		s.lister = lister
	}
}

// WithStoreLogger sets the store logger.
func WithStoreLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore returns a store backed by db.
func NewStore(db bun.IDB, opts ...StoreOption) *Store {
	s := &Store{
		db:     db,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.lister == nil {
		s.lister = NewBunLister(db)
	}
	return s
}

// CreateSchema creates the profiles table if it does not exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*Profile)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "failed to create talent schema")
	}
	return nil
}

// Create stores p, assigning an ID and creation time when missing.
func (s *Store) Create(ctx context.Context, p *Profile) error {
	if p == nil {
		return goerrors.New("profile is required", goerrors.CategoryBadInput).
			WithTextCode("NIL_PROFILE")
	}
	if err := p.Validate(); err != nil {
		return err
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}

	if _, err := s.db.NewInsert().Model(p).Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "failed to create talent profile").
			WithTextCode("TALENT_CREATE_FAILED")
	}

	s.logger.Debug().Str("id", p.ID).Str("category", p.Category).Msg("talent profile created")
	return nil
}

// Search returns the profiles whose name contains query and that match
// filters.
func (s *Store) Search(ctx context.Context, query string, filters Filters) (Result, error) {
	if err := filters.Validate(); err != nil {
		return Result{}, err
	}

	start := s.now()
	profiles, total, err := s.lister.List(ctx, filters.Criteria(query)...)
	if err != nil {
		return Result{}, err
	}

	s.logger.Debug().
		Str("query", query).
		Int("total", total).
		Dur("took", s.now().Sub(start)).
		Msg("talent search")

	return Result{Profiles: profiles, Total: total}, nil
}

package searchcache

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/rs/zerolog"
)

// Expirer is anything holding entries that can go stale.
type Expirer interface {
	Namespace() string
	RemoveExpired() int
}

// Sweeper periodically removes expired results so idle searchers do not
// hold on to memory until their next lookup.
type Sweeper struct {
	interval time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	targets []Expirer
}

// NewSweeper returns a sweeper over targets. More can be added later.
func NewSweeper(interval time.Duration, logger zerolog.Logger, targets ...Expirer) *Sweeper {
	return &Sweeper{
		interval: interval,
		logger:   logger,
		targets:  targets,
	}
}

// Add registers another target.
func (s *Sweeper) Add(target Expirer) {
	s.mu.Lock()
	s.targets = append(s.targets, target)
	s.mu.Unlock()
}

// Sweep runs a single pass and returns the number of entries removed.
func (s *Sweeper) Sweep() int {
	s.mu.Lock()
	targets := make([]Expirer, len(s.targets))
	copy(targets, s.targets)
	s.mu.Unlock()

	total := 0
	for _, target := range targets {
		removed := target.RemoveExpired()
		if removed > 0 {
			s.logger.Debug().
				Str("search", target.Namespace()).
				Int("removed", removed).
				Msg("expired search results removed")
		}
		total += removed
	}
	return total
}

// Run sweeps on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return goerrors.New("sweep interval must be positive", goerrors.CategoryValidation).
			WithTextCode("INVALID_SWEEP_INTERVAL")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("search cache sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("search cache sweeper stopped")
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}

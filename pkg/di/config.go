package di

import (
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-query-cache/cache"
)

// DefaultSweepInterval is how often the container sweeper removes expired
// results when the config does not say otherwise.
const DefaultSweepInterval = time.Minute

// Config is the container configuration. Every searcher built by the
// container gets a local cache configured with Local. When Shared is set,
// all searchers also share one sturdyc backed tier.
type Config struct {
	Local         cache.Config        `json:"local" yaml:"local"`
	Shared        *cache.SharedConfig `json:"shared,omitempty" yaml:"shared,omitempty"`
	SweepInterval time.Duration       `json:"sweep_interval" yaml:"sweep_interval"`
}

// DefaultConfig returns local caching with the package defaults, no shared
// tier, and a one minute sweep.
func DefaultConfig() Config {
	return Config{
		Local:         cache.DefaultConfig(),
		SweepInterval: DefaultSweepInterval,
	}
}

// Validate checks the local, shared and sweep settings.
func (c Config) Validate() error {
	if err := c.Local.Validate(); err != nil {
		return err
	}

	if c.Shared != nil {
		if err := c.Shared.Validate(); err != nil {
			return err
		}
	}

	if err := goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&c,
			validation.Field(&c.SweepInterval, validation.Min(time.Duration(0))),
		)
	}, "invalid container config"); err != nil {
		return err
	}
	return nil
}

// LoadConfig reads a YAML config file. Values missing from the file keep
// their defaults, including the fields of a partially specified shared
// section. Durations use Go syntax, e.g. "30s".
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		category := goerrors.CategoryInternal
		if os.IsNotExist(err) {
			category = goerrors.CategoryNotFound
		}
		return Config{}, goerrors.Wrap(err, category, "failed to read cache config").
			WithMetadata(map[string]any{"path": path})
	}

	var sections struct {
		Shared *yaml.Node `yaml:"shared"`
	}
	if err := yaml.Unmarshal(raw, &sections); err != nil {
		return Config{}, invalidConfigFile(err, path)
	}

	cfg := DefaultConfig()
	shared := cache.DefaultSharedConfig()
	cfg.Shared = &shared

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, invalidConfigFile(err, path)
	}

	if sections.Shared == nil || sections.Shared.Tag == "!!null" {
		cfg.Shared = nil
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func invalidConfigFile(err error, path string) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse cache config").
		WithTextCode("INVALID_CONFIG_FILE").
		WithMetadata(map[string]any{"path": path})
}

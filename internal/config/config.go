package config

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"
)

// Walk strategies understood by the unpacker
const (
	StrategyTopOnly    = "top_only"
	StrategyFirstMatch = "first_match"
)

// ErrInvalidConfig marks configuration that cannot be decoded or used
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete tool configuration
type Config struct {
	Dates DatesConfig
	Media MediaConfig
}

// DatesConfig controls the latest-date filter
type DatesConfig struct {
	OutputLayout string
}

// MediaConfig controls the unpack-media filter
type MediaConfig struct {
	MinSize       int64
	MaxSize       int64
	Formats       []string
	MediaRoot     string
	RelativeRoot  string
	Strategy      string
	SkipMalformed bool
}

//go:embed defaults.toml
var defaultFiles embed.FS

// Default returns the built-in configuration
func Default() (*Config, error) {
	data, err := defaultFiles.ReadFile("defaults.toml")
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse built-in defaults: %w", err)
	}

	return &cfg, nil
}

// Load returns the defaults overlaid with the TOML file at path, if any.
// The result is not validated; callers apply their overrides first.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}

			return nil, fmt.Errorf("%w: failed to load config file %s: %w", ErrInvalidConfig, path, err)
		}

		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, key := range undecoded {
				keys = append(keys, key.String())
			}

			return nil, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
		}
	}

	return cfg, nil
}

// Validate checks value ranges and cross-field constraints
func (c *Config) Validate() error {
	if c.Dates.OutputLayout == "" {
		return fmt.Errorf("%w: Dates.OutputLayout cannot be empty", ErrInvalidConfig)
	}

	m := c.Media

	if m.MinSize < 0 || m.MaxSize < 0 {
		return fmt.Errorf("%w: size bounds must not be negative", ErrInvalidConfig)
	}

	if m.MinSize > m.MaxSize {
		return fmt.Errorf("%w: MinSize %d is greater than MaxSize %d", ErrInvalidConfig, m.MinSize, m.MaxSize)
	}

	if len(m.Formats) == 0 {
		return fmt.Errorf("%w: Media.Formats cannot be empty", ErrInvalidConfig)
	}

	if m.MediaRoot == "" {
		return fmt.Errorf("%w: Media.MediaRoot cannot be empty", ErrInvalidConfig)
	}

	switch m.Strategy {
	case StrategyTopOnly, StrategyFirstMatch:
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, m.Strategy)
	}

	return nil
}

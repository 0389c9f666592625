// Package config loads tool settings and initial parameter values from a
// YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/SpotlightKid/midiomatic/pkg/framework/debug"
	"github.com/SpotlightKid/midiomatic/pkg/framework/param"
)

// Config is the on-disk configuration.
type Config struct {
	LogLevel   string  `yaml:"log_level"`
	LogFile    string  `yaml:"log_file,omitempty"`
	SampleRate float64 `yaml:"sample_rate"`
	BlockSize  int     `yaml:"block_size"`

	// Parameters maps parameter symbols to plain values or to labels the
	// parameter can parse, e.g. "Channel 5" or "10 ms".
	Parameters map[string]string `yaml:"parameters,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:   "info",
		SampleRate: 48000,
		BlockSize:  256,
	}
}

// Load reads a YAML file on top of the defaults. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the tool settings. Parameter values are not checked here;
// the registry clamps them.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %v", c.SampleRate)
	}
	if c.BlockSize < 1 || c.BlockSize > 1<<16 {
		return fmt.Errorf("block_size must be between 1 and 65536, got %d", c.BlockSize)
	}
	if _, err := debug.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() debug.LogLevel {
	level, _ := debug.ParseLevel(c.LogLevel)
	return level
}

// Logger builds the logger described by the configuration. The returned
// close function does nothing when logging to stderr.
func (c *Config) Logger(prefix string) (*debug.Logger, func() error, error) {
	var logger *debug.Logger
	closeFn := func() error { return nil }
	if c.LogFile != "" {
		l, closer, err := debug.NewFileLogger(c.LogFile, prefix, debug.DefaultFlags)
		if err != nil {
			return nil, nil, err
		}
		logger, closeFn = l, closer.Close
	} else {
		logger = debug.New(os.Stderr, prefix, debug.FlagLevel|debug.FlagPrefix)
	}
	logger.SetLevel(c.Level())
	return logger, closeFn, nil
}

// Apply sets the configured parameter values. Unknown symbols and
// unparsable values are reported together after all others are applied.
func (c *Config) Apply(registry *param.Registry) error {
	symbols := make([]string, 0, len(c.Parameters))
	for symbol := range c.Parameters {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	var errs []error
	for _, symbol := range symbols {
		p := registry.GetBySymbol(symbol)
		if p == nil {
			errs = append(errs, fmt.Errorf("unknown parameter %q", symbol))
			continue
		}
		if err := setValue(p, c.Parameters[symbol]); err != nil {
			errs = append(errs, fmt.Errorf("parameter %q: %w", symbol, err))
		}
	}
	return errors.Join(errs...)
}

func setValue(p *param.Parameter, value string) error {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "true", "on", "yes":
		p.SetPlainValue(p.Max)
		return nil
	case "false", "off", "no":
		p.SetPlainValue(p.Min)
		return nil
	}
	if plain, err := strconv.ParseFloat(value, 64); err == nil {
		p.SetPlainValue(plain)
		return nil
	}
	normalized, err := p.ParseValue(value)
	if err != nil {
		return err
	}
	p.SetValue(normalized)
	return nil
}

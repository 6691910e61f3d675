package main

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Run     RunConfig     `toml:"run"`
	Logging LoggingConfig `toml:"logging"`
}

type RunConfig struct {
	Duration   time.Duration `toml:"duration"`
	Entities   int           `toml:"entities"`   // initial entities per engine
	Engines    int           `toml:"engines"`    // engines run concurrently
	Systems    int           `toml:"systems"`    // mutator systems per engine
	Components int           `toml:"components"` // generated component kinds
	Churn      float64       `toml:"churn"`      // chance per system tick of a structural change (0.0-1.0)
	Seed       uint64        `toml:"seed"`
	Scripts    bool          `toml:"scripts"` // attach a Lua census system to every engine
	Prefab     string        `toml:"prefab"`  // optional YAML or TOML template spawned into every engine
	Profile    string        `toml:"profile"` // "", "cpu" or "mem"
	GCMetrics  bool          `toml:"gc_pause_metrics"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// loadConfig returns the defaults overlaid with the file at path, if any.
func loadConfig(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Run.Duration <= 0:
		return fmt.Errorf("duration must be positive, got %s", c.Run.Duration)
	case c.Run.Engines < 1:
		return fmt.Errorf("engines must be at least 1, got %d", c.Run.Engines)
	case c.Run.Entities < 0:
		return fmt.Errorf("entities must not be negative, got %d", c.Run.Entities)
	case c.Run.Systems < 0:
		return fmt.Errorf("systems must not be negative, got %d", c.Run.Systems)
	case c.Run.Components < 5:
		return fmt.Errorf("components must be at least 5, got %d", c.Run.Components)
	case c.Run.Churn < 0 || c.Run.Churn > 1:
		return fmt.Errorf("churn must be within [0, 1], got %g", c.Run.Churn)
	}
	switch c.Run.Profile {
	case "", "cpu", "mem":
	default:
		return fmt.Errorf("unknown profile mode %q", c.Run.Profile)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Run: RunConfig{
			Duration:   10 * time.Second,
			Entities:   10000,
			Engines:    1,
			Systems:    50,
			Components: 250,
			Churn:      0.1,
			Seed:       1,
			Scripts:    true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

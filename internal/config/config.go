package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Logging LoggingConfig `toml:"logging"`
	Stress  StressConfig  `toml:"stress"`
	Orbits  OrbitsConfig  `toml:"orbits"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// StressConfig drives cmd/scene-stress. Rates are per frame probabilities.
type StressConfig struct {
	Nodes        int           `toml:"nodes"`
	Depth        int           `toml:"depth"`
	Duration     time.Duration `toml:"duration"`
	Seed         int64         `toml:"seed"`
	ReparentRate float64       `toml:"reparent_rate"`
	ToggleRate   float64       `toml:"toggle_rate"`
	CloneRate    float64       `toml:"clone_rate"`
	DestroyRate  float64       `toml:"destroy_rate"`
	MoveRate     float64       `toml:"move_rate"`
	Skins        int           `toml:"skins"`
	Joints       int           `toml:"joints"`
	Profile      string        `toml:"profile"` // "none", "cpu" or "mem"
}

type OrbitsConfig struct {
	Width   int  `toml:"width"`
	Height  int  `toml:"height"`
	Planets int  `toml:"planets"`
	Moons   int  `toml:"moons"`
	DebugUI bool `toml:"debug_ui"`
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a TOML document over the defaults
func Parse(data string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	s := c.Stress
	if s.Nodes < 1 {
		return fmt.Errorf("stress.nodes must be positive, got %d", s.Nodes)
	}
	if s.Depth < 1 {
		return fmt.Errorf("stress.depth must be positive, got %d", s.Depth)
	}
	for name, rate := range map[string]float64{
		"reparent_rate": s.ReparentRate,
		"toggle_rate":   s.ToggleRate,
		"clone_rate":    s.CloneRate,
		"destroy_rate":  s.DestroyRate,
		"move_rate":     s.MoveRate,
	} {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("stress.%s must be within [0, 1], got %g", name, rate)
		}
	}
	switch s.Profile {
	case "", "none", "cpu", "mem":
	default:
		return fmt.Errorf("stress.profile must be none, cpu or mem, got %q", s.Profile)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Stress: StressConfig{
			Nodes:        10000,
			Depth:        8,
			Duration:     10 * time.Second,
			Seed:         1,
			ReparentRate: 0.2,
			ToggleRate:   0.2,
			CloneRate:    0.05,
			DestroyRate:  0.05,
			MoveRate:     0.5,
			Skins:        16,
			Joints:       24,
			Profile:      "none",
		},
		Orbits: OrbitsConfig{
			Width:   960,
			Height:  720,
			Planets: 5,
			Moons:   2,
		},
	}
}

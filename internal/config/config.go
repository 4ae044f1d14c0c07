// Package config loads the facelabel TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration written as a string such as "250ms"
type Duration time.Duration

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Input controls click detection
type Input struct {
	ClickThreshold Duration `toml:"click_threshold"`
}

// Mesh controls STL segmentation
type Mesh struct {
	FeatureAngle  float64 `toml:"feature_angle"`
	WeldTolerance float64 `toml:"weld_tolerance"`
}

// Display controls highlight colors
type Display struct {
	SelectionColor string `toml:"selection_color"`
}

// Watch controls reloading files that change on disk
type Watch struct {
	Enabled  bool     `toml:"enabled"`
	Debounce Duration `toml:"debounce"`
}

// Log controls diagnostic logging
type Log struct {
	File string `toml:"file"`
}

// Config is the complete configuration
type Config struct {
	Input   Input   `toml:"input"`
	Mesh    Mesh    `toml:"mesh"`
	Display Display `toml:"display"`
	Watch   Watch   `toml:"watch"`
	Log     Log     `toml:"log"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Input:   Input{ClickThreshold: Duration(250 * time.Millisecond)},
		Mesh:    Mesh{FeatureAngle: 20, WeldTolerance: 1e-6},
		Display: Display{SelectionColor: "#FFFF00"},
		Watch:   Watch{Debounce: Duration(500 * time.Millisecond)},
	}
}

// DefaultPath returns ~/.facelabel/config.toml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".facelabel", "config.toml"), nil
}

// Load reads the configuration at path on top of the defaults. A missing
// file is not an error. An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating the directory
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Input.ClickThreshold <= 0 {
		return fmt.Errorf("input.click_threshold must be positive")
	}
	if c.Mesh.FeatureAngle <= 0 || c.Mesh.FeatureAngle >= 180 {
		return fmt.Errorf("mesh.feature_angle must be between 0 and 180 degrees")
	}
	if c.Mesh.WeldTolerance <= 0 {
		return fmt.Errorf("mesh.weld_tolerance must be positive")
	}
	if _, err := ParseColor(c.Display.SelectionColor); err != nil {
		return fmt.Errorf("display.selection_color: %w", err)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// ParseColor parses "#RRGGBB" into its components
func ParseColor(s string) ([3]uint8, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return [3]uint8{}, fmt.Errorf("invalid color %q, expected #RRGGBB", s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return [3]uint8{}, fmt.Errorf("invalid color %q, expected #RRGGBB", s)
	}
	return [3]uint8{uint8(n >> 16), uint8(n >> 8), uint8(n)}, nil
}

package canopy

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for a SceneManager and its host.
type Config struct {
	// PhysicsHz is the fixed physics rate; the physics step is 1/PhysicsHz.
	PhysicsHz float64 `yaml:"physics_hz" env:"PHYSICS_HZ"`
	// MaxPhysicsSteps caps the physics steps run by one Tick. Accumulated
	// time beyond the cap carries over to later ticks.
	MaxPhysicsSteps int `yaml:"max_physics_steps" env:"MAX_PHYSICS_STEPS"`
	// Debug enables tree depth and child count warnings.
	Debug bool `yaml:"debug" env:"DEBUG"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	// Window settings used by Run.
	Title  string `yaml:"title" env:"TITLE"`
	Width  int    `yaml:"width" env:"WIDTH"`
	Height int    `yaml:"height" env:"HEIGHT"`

	// MetricsAddr, when set, is where the CLI serves Prometheus metrics.
	MetricsAddr string `yaml:"metrics_addr" env:"METRICS_ADDR"`
}

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "CANOPY_"

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		PhysicsHz:       60,
		MaxPhysicsSteps: 4,
		LogLevel:        "info",
		Title:           "canopy",
		Width:           640,
		Height:          480,
	}
}

// LoadConfig returns DefaultConfig overlaid with the YAML file at path (if
// path is non-empty) and then with CANOPY_* environment variables.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.PhysicsHz <= 0 {
		errs = append(errs, fmt.Errorf("physics_hz must be positive, got %v", c.PhysicsHz))
	}
	if c.MaxPhysicsSteps < 1 {
		errs = append(errs, fmt.Errorf("max_physics_steps must be at least 1, got %d", c.MaxPhysicsSteps))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Width < 0 || c.Height < 0 {
		errs = append(errs, fmt.Errorf("window size must not be negative, got %dx%d", c.Width, c.Height))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

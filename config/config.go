// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/impulse/physics"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Physics   PhysicsConfig   `yaml:"physics"`
	RigidBody physics.Config  `yaml:"rigidbody"`
	Circle    CircleConfig    `yaml:"circle"`
	Polygon   PolygonConfig   `yaml:"polygon"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Scene     SceneConfig     `yaml:"scene"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// PhysicsConfig holds the fixed-timestep parameters.
type PhysicsConfig struct {
	FixedDeltaMS      float64 `yaml:"fixed_delta_ms"`       // Length of one fixed step
	MaxStepsPerUpdate int     `yaml:"max_steps_per_update"` // Cap on catch-up steps per real-time update (0 = no cap)
}

// CircleConfig holds defaults for circle hitboxes.
type CircleConfig struct {
	Radius float64 `yaml:"radius"`
	Scale  float64 `yaml:"scale"`
}

// PolygonConfig holds defaults for polygon hitboxes.
type PolygonConfig struct {
	Rotation float64 `yaml:"rotation"`
	Scale    float64 `yaml:"scale"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`          // Seconds per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // Ticks averaged by the perf collector
}

// SceneConfig holds scene loading parameters.
type SceneConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	FixedDeltaSec float64 // Physics.FixedDeltaMS in seconds
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

// Validate checks values the simulation cannot run with.
func (c *Config) Validate() error {
	if c.Physics.FixedDeltaMS <= 0 {
		return fmt.Errorf("physics.fixed_delta_ms must be positive, got %v", c.Physics.FixedDeltaMS)
	}
	if c.Physics.MaxStepsPerUpdate < 0 {
		return fmt.Errorf("physics.max_steps_per_update must not be negative, got %d", c.Physics.MaxStepsPerUpdate)
	}
	if err := c.RigidBody.Validate(); err != nil {
		return fmt.Errorf("rigidbody: %w", err)
	}
	if c.Circle.Radius <= 0 {
		return fmt.Errorf("circle.radius must be positive, got %v", c.Circle.Radius)
	}
	if c.Circle.Scale <= 0 || c.Polygon.Scale <= 0 {
		return fmt.Errorf("circle.scale and polygon.scale must be positive")
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.FixedDeltaSec = c.Physics.FixedDeltaMS / 1000
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Package config loads the workspace configuration from
// .ordercloak/config.yaml. Every field has a working default; a missing
// config file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses yaml durations written in Go notation ("150ms", "2s").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// StoreConfig locates the SQLite store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// EngineConfig tunes the reconciliation engine.
type EngineConfig struct {
	// Debounce is the mutation watcher's quiet window.
	Debounce Duration `yaml:"debounce"`
}

// UserConfig identifies who is hiding orders, shown on the overlay.
type UserConfig struct {
	Name string `yaml:"name"`
}

// Config is the full .ordercloak/config.yaml document. The logging section
// is read separately by the logging package.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Engine EngineConfig `yaml:"engine"`
	User   UserConfig   `yaml:"user"`
}

// Default returns the configuration used when no file exists.
func Default(workspace string) *Config {
	return &Config{
		Store: StoreConfig{
			Path: filepath.Join(workspace, ".ordercloak", "ordercloak.db"),
		},
		Engine: EngineConfig{
			Debounce: Duration(150 * time.Millisecond),
		},
	}
}

// Load reads .ordercloak/config.yaml under the workspace, filling unset
// fields from the defaults. A missing file yields the defaults.
func Load(workspace string) (*Config, error) {
	cfg := Default(workspace)
	data, err := os.ReadFile(filepath.Join(workspace, ".ordercloak", "config.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = Default(workspace).Store.Path
	}
	if cfg.Engine.Debounce <= 0 {
		cfg.Engine.Debounce = Default(workspace).Engine.Debounce
	}
	return cfg, nil
}

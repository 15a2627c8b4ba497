// Package config loads the kerf TOML configuration. The caller passes an
// explicit path; there is no hierarchical discovery here.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	General  General  `toml:"general"`
	Output   Output   `toml:"output"`
	Suppress Suppress `toml:"suppress"`
}

type General struct {
	// DefaultPlugin names the interpreter to use when auto-detection is
	// not wanted. Equivalent to always passing --plugin.
	DefaultPlugin string `toml:"default_plugin"`
}

type Output struct {
	Color  bool   `toml:"color"`
	Format string `toml:"format"` // "text" or "json"
}

// Suppress holds display-only exclusions. These hide messages from output
// but never affect the CI verdict; that is what waivers are for.
type Suppress struct {
	Patterns   []string `toml:"patterns"`
	MessageIDs []string `toml:"message_ids"`
}

func Default() Config {
	return Config{Output: Output{Color: true, Format: "text"}}
}

// Load reads the config at path, or returns defaults when path is empty.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.Output.Format != "text" && cfg.Output.Format != "json" {
		return cfg, fmt.Errorf("config %s: unknown output format %q", path, cfg.Output.Format)
	}
	return cfg, nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if !cfg.Output.Color || cfg.Output.Format != "text" {
		t.Fatalf("unexpected defaults: %+v", cfg.Output)
	}
	if cfg.General.DefaultPlugin != "" || len(cfg.Suppress.Patterns) != 0 {
		t.Fatalf("defaults not empty: %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kerf.toml")
	doc := `
[general]
default_plugin = "vivado"

[output]
color = false
format = "json"

[suppress]
patterns = ["^INFO:"]
message_ids = ["Synth 8-7080"]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.DefaultPlugin != "vivado" {
		t.Fatalf("default_plugin = %q", cfg.General.DefaultPlugin)
	}
	if cfg.Output.Color || cfg.Output.Format != "json" {
		t.Fatalf("output: %+v", cfg.Output)
	}
	if len(cfg.Suppress.Patterns) != 1 || len(cfg.Suppress.MessageIDs) != 1 {
		t.Fatalf("suppress: %+v", cfg.Suppress)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kerf.toml")
	if err := os.WriteFile(path, []byte("[general]\ndefault_plugin = \"vivado\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Output.Color || cfg.Output.Format != "text" {
		t.Fatalf("partial config lost defaults: %+v", cfg.Output)
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kerf.toml")
	if err := os.WriteFile(path, []byte("[output]\nformat = \"xml\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("unknown format accepted")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("missing file accepted")
	}
}

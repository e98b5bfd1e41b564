package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// DefaultPath returns the default location of the config file,
// ~/.config/voxtalk/config.yaml. Falls back to a relative path when the
// home directory cannot be resolved.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "voxtalk", "config.yaml")
	}
	return filepath.Join(home, ".config", "voxtalk", "config.yaml")
}

// Load reads the YAML configuration file at path. Load is tolerant: a
// missing file yields defaults silently, and a malformed file yields
// defaults with a logged warning, so the client always starts.
func Load(path string) *Config {
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("could not open config file, using defaults", "path", path, "err", err)
		}
		return Default()
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		slog.Warn("could not parse config file, using defaults", "path", path, "err", err)
		return Default()
	}
	return cfg
}

// LoadFromReader decodes a YAML config from r onto the defaults and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. Unknown
// models only warn, so a newly released model name does not lock the user
// out of their own config.
func Validate(cfg *Config) error {
	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		return fmt.Errorf("config: log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel)
	}
	if cfg.Model != "" && !slices.Contains(KnownModels, cfg.Model) {
		slog.Warn("unrecognised model in config", "model", cfg.Model)
	}
	return nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, since the record contains API keys. Parent directories are
// created as needed.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("config: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("config: chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("config: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("config: rename into place: %w", err)
	}
	return nil
}

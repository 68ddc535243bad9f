// Package config loads and validates config.toml, the node's one
// startup configuration file. Uses github.com/naoina/toml, the
// teacher's own TOML library (cmd/utils/flags.go config loading in
// go-ethereum-family codebases favors this exact package over
// BurntSushi/toml), kept here for the same purpose: struct-tag-driven
// decoding with a fatal, descriptive error on a malformed file.
package config

import (
	"fmt"
	"os"

	"github.com/naoina/toml"
)

// ValidLogLevels enumerates the accepted log_level values.
var ValidLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// MinSizingFactor and MaxSizingFactor bound chord_sizing_factor, per
// dht/ring.MaxSizeFactor and the requirement that a ring of size 2^m
// be nonempty.
const (
	MinSizingFactor = 1
	MaxSizingFactor = 32
)

// Config mirrors config.toml's three keys (spec.md §6).
type Config struct {
	LogLevel          string `toml:"log_level"`
	MaxMemoryMB       uint32 `toml:"max_memory_mb"`
	ChordSizingFactor uint   `toml:"chord_sizing_factor"`
}

// Load reads and validates path, returning a fatal error describing
// exactly which value was invalid.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: malformed %s: %w", path, err)
	}

	if !ValidLogLevels[cfg.LogLevel] {
		return Config{}, fmt.Errorf("config: invalid log_level %q", cfg.LogLevel)
	}
	if cfg.MaxMemoryMB == 0 {
		return Config{}, fmt.Errorf("config: max_memory_mb must be nonzero")
	}
	if cfg.ChordSizingFactor < MinSizingFactor || cfg.ChordSizingFactor > MaxSizingFactor {
		return Config{}, fmt.Errorf("config: chord_sizing_factor must be in [%d,%d], got %d",
			MinSizingFactor, MaxSizingFactor, cfg.ChordSizingFactor)
	}

	return cfg, nil
}

// MaxMemBytes converts the configured megabyte budget to bytes.
func (c Config) MaxMemBytes() uint64 {
	return uint64(c.MaxMemoryMB) * 1024 * 1024
}

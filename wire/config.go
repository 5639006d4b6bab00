package wire

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// DefaultMaxDepth bounds sub-message nesting when no configuration says otherwise.
const DefaultMaxDepth = 100

// Config controls decoder limits and diagnostics.
type Config struct {
	// MaxDepth is the deepest sub-message nesting a decode may reach. The
	// top-level message is depth 0; a field whose embedded message would sit
	// deeper than MaxDepth fails with ErrDepthExceeded. Values <= 0 fall back
	// to DefaultMaxDepth.
	MaxDepth int `toml:"max_depth"`

	// LogFailures: when true, failed top-level decodes are logged at debug
	// level on the package logger.
	LogFailures bool `toml:"log_failures"`
}

// Environment overrides applied by DefaultConfig and LoadConfig.
const (
	EnvMaxDepth    = "PROTOVIEW_MAX_DEPTH"
	EnvLogFailures = "PROTOVIEW_LOG_FAILURES"
)

// DefaultConfig returns the built-in defaults with environment overrides applied.
func DefaultConfig() Config {
	cfg := Config{MaxDepth: DefaultMaxDepth}
	applyEnvOverrides(&cfg)
	return cfg
}

// LoadConfig reads a TOML config file. Keys missing from the file keep their
// defaults, and environment overrides win over the file.
func LoadConfig(path string) (Config, error) {
	cfg := Config{MaxDepth: DefaultMaxDepth}

	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load decoder config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load decoder config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("max_depth") {
		if raw.MaxDepth <= 0 {
			return Config{}, fmt.Errorf("load decoder config: max_depth must be positive, got %d", raw.MaxDepth)
		}
		cfg.MaxDepth = raw.MaxDepth
	}
	if meta.IsDefined("log_failures") {
		cfg.LogFailures = raw.LogFailures
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func (c Config) maxDepth() int {
	if c.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return c.MaxDepth
}

func applyEnvOverrides(cfg *Config) {
	if v, err := strconv.Atoi(os.Getenv(EnvMaxDepth)); err == nil && v > 0 {
		cfg.MaxDepth = v
	}
	if v := os.Getenv(EnvLogFailures); v == "1" || v == "true" {
		cfg.LogFailures = true
	}
}

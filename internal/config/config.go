// Package config holds the settings of the bytepipe command.
// Settings come from an optional JSON file and are overridden by flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const (
	// DefaultBufferSize matches the copy buffer used by the pipe.
	DefaultBufferSize = 32 * 1024

	// DefaultCharset is the output encoding when none is configured.
	DefaultCharset = "utf-8"

	// DefaultLogLevel is the zap level name used when none is configured.
	DefaultLogLevel = "info"
)

// Config is the root configuration structure.
type Config struct {
	// BufferSize bounds the pipe between stdin and stdout. Ignored when Unbounded is set.
	BufferSize int  `json:"buffer_size"`
	Unbounded  bool `json:"unbounded"`

	// Charset names the encoding written to stdout. Input is read as UTF-8.
	Charset string `json:"charset"`

	// MetricsAddr is the listen address of the Prometheus endpoint. Empty disables it.
	MetricsAddr string `json:"metrics_addr"`

	LogLevel string `json:"log_level"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		BufferSize: DefaultBufferSize,
		Charset:    DefaultCharset,
		LogLevel:   DefaultLogLevel,
	}
}

// Load reads a JSON configuration file on top of the defaults. An empty path
// returns the defaults. The result is not validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("config file not found: %s", path)
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

package config

import (
	"fmt"
	"net"

	"go.uber.org/zap/zapcore"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Validate validates the entire configuration.
func (c *Config) Validate() error {
	if err := c.validateBuffer(); err != nil {
		return fmt.Errorf("buffer: %w", err)
	}
	if _, err := c.Encoding(); err != nil {
		return fmt.Errorf("charset: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if err := c.validateMetrics(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}

func (c *Config) validateBuffer() error {
	if c.Unbounded {
		return nil
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer_size must be positive, got %d", c.BufferSize)
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if c.MetricsAddr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
		return fmt.Errorf("invalid metrics_addr %q: %w", c.MetricsAddr, err)
	}
	return nil
}

// Encoding resolves Charset to an encoding. UTF-8 resolves to nil, meaning the
// text passes through unchanged.
func (c *Config) Encoding() (encoding.Encoding, error) {
	name := c.Charset
	if name == "" {
		name = DefaultCharset
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", name, err)
	}
	if canonical, _ := htmlindex.Name(enc); canonical == "utf-8" {
		return nil, nil
	}
	return enc, nil
}

// Level parses LogLevel as a zap level name.
func (c *Config) Level() (zapcore.Level, error) {
	name := c.LogLevel
	if name == "" {
		name = DefaultLogLevel
	}
	return zapcore.ParseLevel(name)
}

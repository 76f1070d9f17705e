package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := writeConfig(t, `{"buffer_size": 512, "charset": "latin1", "metrics_addr": ":9100"}`)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 512, cfg.BufferSize)
		assert.Equal(t, "latin1", cfg.Charset)
		assert.Equal(t, ":9100", cfg.MetricsAddr)
		assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
		assert.False(t, cfg.Unbounded)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
		assert.ErrorContains(t, err, "config file not found")
	})

	t.Run("malformed file", func(t *testing.T) {
		_, err := Load(writeConfig(t, `{"buffer_size":`))
		assert.ErrorContains(t, err, "failed to parse config file")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "defaults", modify: func(*Config) {}},
		{name: "unbounded ignores buffer size", modify: func(c *Config) { c.Unbounded = true; c.BufferSize = 0 }},
		{name: "zero buffer", modify: func(c *Config) { c.BufferSize = 0 }, wantErr: "buffer_size must be positive"},
		{name: "unknown charset", modify: func(c *Config) { c.Charset = "klingon" }, wantErr: "unknown charset"},
		{name: "unknown log level", modify: func(c *Config) { c.LogLevel = "chatty" }, wantErr: "log_level"},
		{name: "bad metrics address", modify: func(c *Config) { c.MetricsAddr = "localhost" }, wantErr: "invalid metrics_addr"},
		{name: "metrics address", modify: func(c *Config) { c.MetricsAddr = "127.0.0.1:9100" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestEncoding(t *testing.T) {
	cfg := Default()
	enc, err := cfg.Encoding()
	require.NoError(t, err)
	assert.Nil(t, enc, "utf-8 passes through")

	cfg.Charset = "ISO-8859-2"
	enc, err = cfg.Encoding()
	require.NoError(t, err)
	assert.NotNil(t, enc)
}

func TestLevel(t *testing.T) {
	cfg := Default()
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)

	cfg.LogLevel = "debug"
	level, err = cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)
}

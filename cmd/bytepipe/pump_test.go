package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jacoelho/bytepipe/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/encoding/charmap"
)

func TestPumpCopies(t *testing.T) {
	input := strings.Repeat("the quick brown fox\n", 1000)

	for _, unbounded := range []bool{false, true} {
		p := &pump{bufferSize: 7, unbounded: unbounded, logger: zaptest.NewLogger(t)}

		var out bytes.Buffer
		require.NoError(t, p.run(context.Background(), strings.NewReader(input), &out))
		assert.Equal(t, input, out.String())
	}
}

func TestPumpEncodes(t *testing.T) {
	p := &pump{bufferSize: 4, encoding: charmap.ISO8859_1, logger: zaptest.NewLogger(t)}

	var out bytes.Buffer
	require.NoError(t, p.run(context.Background(), strings.NewReader("olá"), &out))
	assert.Equal(t, []byte{'o', 'l', 0xe1}, out.Bytes())
}

func TestPumpTracksAndUntracks(t *testing.T) {
	collector := metrics.NewCollector("test")
	p := &pump{bufferSize: 16, collector: collector, logger: zaptest.NewLogger(t)}

	var out bytes.Buffer
	require.NoError(t, p.run(context.Background(), strings.NewReader("data"), &out))
	assert.Equal(t, 0, testutil.CollectAndCount(collector), "the pipe is untracked once the copy ends")
}

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestPumpErrors(t *testing.T) {
	t.Run("output", func(t *testing.T) {
		outErr := errors.New("disk full")
		p := &pump{bufferSize: 4, logger: zaptest.NewLogger(t)}

		err := p.run(context.Background(), strings.NewReader(strings.Repeat("x", 1024)), failingWriter{outErr})
		assert.ErrorIs(t, err, outErr)
		assert.ErrorContains(t, err, "write output")
	})

	t.Run("input", func(t *testing.T) {
		inErr := errors.New("stdin gone")
		p := &pump{bufferSize: 4, logger: zaptest.NewLogger(t)}

		err := p.run(context.Background(), failingReader{inErr}, io.Discard)
		assert.ErrorIs(t, err, inErr)
		assert.ErrorContains(t, err, "read input")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := &pump{bufferSize: 4, logger: zaptest.NewLogger(t)}

		src, srcW := io.Pipe()
		defer srcW.Close()
		go func() {
			// keep the input open so only the cancellation ends the copy
			_, _ = srcW.Write([]byte("unfinished"))
		}()

		err := p.run(ctx, src, io.Discard)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLoadConfigFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"buffer_size": 128, "charset": "latin1"}`), 0600))

	app := newApp()
	app.Action = func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		require.NoError(t, err)
		assert.Equal(t, 64, cfg.BufferSize, "flags override the file")
		assert.Equal(t, "latin1", cfg.Charset, "file overrides defaults")
		assert.Equal(t, "debug", cfg.LogLevel)
		return nil
	}
	require.NoError(t, app.Run([]string{"bytepipe", "--config", path, "--buffer-size", "64", "--log-level", "debug"}))
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	app := newApp()
	app.Action = func(c *cli.Context) error {
		_, err := loadConfig(c)
		return err
	}
	err := app.Run([]string{"bytepipe", "--buffer-size", "0"})
	assert.ErrorContains(t, err, "buffer_size must be positive")
}

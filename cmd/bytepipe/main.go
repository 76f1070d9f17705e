// Command bytepipe copies standard input to standard output through a byte pipe,
// reading and writing on separate goroutines.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jacoelho/bytepipe/internal/config"
	"github.com/jacoelho/bytepipe/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "bytepipe:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "bytepipe"
	app.Usage = "copy stdin to stdout through an in-process byte pipe"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "JSON configuration `FILE`; flags override its values",
			EnvVars: []string{"BYTEPIPE_CONFIG"},
		},
		&cli.IntFlag{
			Name:    "buffer-size",
			Usage:   "pipe capacity in bytes",
			Value:   config.DefaultBufferSize,
			EnvVars: []string{"BYTEPIPE_BUFFER_SIZE"},
		},
		&cli.BoolFlag{
			Name:    "unbounded",
			Usage:   "let the pipe grow instead of blocking the reader of stdin",
			EnvVars: []string{"BYTEPIPE_UNBOUNDED"},
		},
		&cli.StringFlag{
			Name:    "charset",
			Usage:   "encoding of the output; input is read as UTF-8",
			Value:   config.DefaultCharset,
			EnvVars: []string{"BYTEPIPE_CHARSET"},
		},
		&cli.StringFlag{
			Name:    "metrics-addr",
			Usage:   "serve Prometheus metrics on `ADDR`",
			EnvVars: []string{"BYTEPIPE_METRICS_ADDR"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log level (debug, info, warn, error)",
			Value:   config.DefaultLogLevel,
			EnvVars: []string{"BYTEPIPE_LOG_LEVEL"},
		},
	}
	app.Action = action
	return app
}

// loadConfig reads the optional config file and applies the flags the user set.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("buffer-size") {
		cfg.BufferSize = c.Int("buffer-size")
	}
	if c.IsSet("unbounded") {
		cfg.Unbounded = c.Bool("unbounded")
	}
	if c.IsSet("charset") {
		cfg.Charset = c.String("charset")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func action(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector("bytepipe")
	if cfg.MetricsAddr != "" {
		srv, err := serveMetrics(cfg.MetricsAddr, collector, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", zap.Error(err))
			}
		}()
	}

	enc, err := cfg.Encoding()
	if err != nil {
		return err
	}

	p := &pump{
		bufferSize: cfg.BufferSize,
		unbounded:  cfg.Unbounded,
		encoding:   enc,
		collector:  collector,
		logger:     logger,
	}
	if err := p.run(ctx, os.Stdin, os.Stdout); err != nil {
		logger.Error("copy failed", zap.Error(err))
		return err
	}
	return nil
}

func serveMetrics(addr string, collector prometheus.Collector, logger *zap.Logger) (*http.Server, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(collector); err != nil {
		return nil, fmt.Errorf("failed to register collector: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return srv, nil
}

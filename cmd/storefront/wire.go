package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vango-dev/storefront/internal/config"
	"github.com/vango-dev/storefront/pkg/app"
	"github.com/vango-dev/storefront/pkg/catalog"
	"github.com/vango-dev/storefront/pkg/live"
	"github.com/vango-dev/storefront/pkg/metrics"
	"github.com/vango-dev/storefront/pkg/storage"
	"github.com/vango-dev/storefront/pkg/storefront"
)

// loadConfig reads path, or ./storefront.json when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(".")
}

// newLogger builds the process logger from the log settings.
func newLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
}

// newStorage builds the cart store backend. Remote backends are wrapped in
// a WriteBehind so the event loop never waits on the network; the returned
// close func flushes it.
func newStorage(cfg config.StorageConfig, logger *slog.Logger, m *metrics.Metrics) (storage.KV, func() error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case config.BackendFile:
		return storage.NewFile(cfg.Path), noop
	case config.BackendS3:
		client := storage.NewS3Client(storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			UsePathStyle:    cfg.S3.UsePathStyle,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		wb := storage.NewWriteBehind(storage.NewS3(client, cfg.S3.Bucket, cfg.S3.Prefix),
			storage.WithWriteLogger(logger),
			storage.WithWriteMetrics(m),
		)
		return wb, wb.Close
	default:
		return storage.NewMemory(), noop
	}
}

// newCatalog returns the configured catalog. With catalog.watch set the
// file is reloaded until ctx is done.
func newCatalog(ctx context.Context, cfg config.CatalogConfig, logger *slog.Logger) (*catalog.Memory, error) {
	if cfg.Path == "" {
		return catalog.Default(), nil
	}
	if cfg.Watch {
		m := catalog.NewMemory(nil)
		if err := catalog.Watch(ctx, m, cfg.Path, logger); err != nil {
			return nil, err
		}
		return m, nil
	}
	products, err := catalog.LoadFile(cfg.Path)
	if err != nil {
		return nil, err
	}
	return catalog.NewMemory(products), nil
}

// newMetrics returns nil when metrics are disabled.
func newMetrics(cfg config.MetricsConfig) *metrics.Metrics {
	if !cfg.Enabled {
		return nil
	}
	return metrics.New(metrics.WithNamespace(cfg.Namespace))
}

// appOptions are the runtime options shared by page renders and live
// sessions.
func appOptions(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) app.Options {
	return app.Options{
		RootID:        cfg.RootID,
		BaseURL:       cfg.BaseURL,
		CartKey:       cfg.Storage.Key,
		ToastDuration: cfg.Toast.Duration,
		Logger:        logger,
		Metrics:       m,
	}
}

// pageRenderer renders pages with an empty cart: the server has no
// per-visitor state outside a live session.
func pageRenderer(cfg *config.Config, cat catalog.Service, logger *slog.Logger, m *metrics.Metrics) func(ctx context.Context, url string) (string, error) {
	base := appOptions(cfg, logger, m)
	return func(ctx context.Context, url string) (string, error) {
		opts := base
		opts.URL = url
		return storefront.RenderPage(ctx, storefront.Options{Options: opts, Catalog: cat})
	}
}

// liveFactory builds a storefront runtime for each live session.
func liveFactory(cfg *config.Config, cat catalog.Service, logger *slog.Logger, m *metrics.Metrics) live.Factory {
	base := appOptions(cfg, logger, m)
	return func(ctx context.Context, req live.Request) (*app.Runtime, func(), error) {
		opts := base
		opts.URL = req.URL
		opts.Scheduler = req.Scheduler
		opts.Storage = req.Storage
		opts.Logger = logger.With("session", req.SessionID)
		a, err := storefront.New(ctx, storefront.Options{Options: opts, Catalog: cat})
		if err != nil {
			return nil, nil, err
		}
		return a.Runtime, a.Stop, nil
	}
}

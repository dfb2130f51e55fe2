package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/storefront/pkg/live"
	"github.com/vango-dev/storefront/pkg/server"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the storefront HTTP server.

Serves server-rendered pages, live sessions on /live, metrics on
/metrics and a liveness probe on /healthz. Stops gracefully on SIGINT
or SIGTERM.

Examples:
  storefront serve
  storefront serve --port=9000
  storefront serve --host=0.0.0.0 --config=prod.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath, host, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from storefront.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from storefront.json)")

	return cmd
}

func runServe(ctx context.Context, configPath, host string, port int) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// Apply command-line overrides
	if port > 0 {
		cfg.Server.Port = port
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(os.Stderr, cfg.Log)
	if err != nil {
		return err
	}
	m := newMetrics(cfg.Metrics)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cat, err := newCatalog(ctx, cfg.Catalog, logger)
	if err != nil {
		return err
	}
	kv, closeStorage := newStorage(cfg.Storage, logger, m)
	defer func() {
		if err := closeStorage(); err != nil {
			logger.Error("storage close failed", "error", err)
		}
	}()

	liveHandler := live.NewHandler(liveFactory(cfg, cat, logger, m),
		live.WithLogger(logger),
		live.WithMetrics(m),
		live.WithStorage(kv),
	)

	serverConfig := server.DefaultConfig()
	serverConfig.Address = cfg.Address()
	serverConfig.Title = cfg.Name
	serverConfig.RootID = cfg.RootID
	if cfg.Server.RenderTimeout > 0 {
		serverConfig.RenderTimeout = cfg.Server.RenderTimeout
	}
	if cfg.Server.ShutdownTimeout > 0 {
		serverConfig.ShutdownTimeout = cfg.Server.ShutdownTimeout
	}

	srv := server.New(serverConfig, pageRenderer(cfg, cat, logger, m),
		server.WithLogger(logger),
		server.WithMetrics(m),
		server.WithLive(liveHandler),
	)

	logger.Info("storefront ready",
		"url", cfg.URL(),
		"products", cat.Len(),
		"storage", cfg.Storage.Backend,
		"started", time.Now().Format(time.RFC3339),
	)
	return srv.Run(ctx)
}

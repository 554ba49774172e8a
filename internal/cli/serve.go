package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rickgao/auction-mirror/internal/config"
	"github.com/rickgao/auction-mirror/internal/feed"
	"github.com/rickgao/auction-mirror/internal/index"
	"github.com/rickgao/auction-mirror/internal/metrics"
	"github.com/rickgao/auction-mirror/internal/poller"
	"github.com/rickgao/auction-mirror/internal/server"
	"github.com/rickgao/auction-mirror/internal/version"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sync loop and the query API",
		Long: `Run the mirror: bootstrap the index from a full scan, keep it current
with incremental cycles, and serve queries over HTTP.

Example:
  mirror serve --config configs/mirror.example.yaml
  mirror serve --log-level debug --log-format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	logger := slog.Default()
	logger.Info("starting mirror",
		"version", version.Version,
		"commit", version.Commit,
		"config", opts.ConfigPath,
	)

	cfg, err := config.LoadAndValidate(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = logger.With("instance_id", cfg.Instance.ID)
	logger.Info("configuration loaded", "api_url", cfg.API.BaseURL)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	m := metrics.New(cfg.Metrics.Namespace)
	client := newClient(cfg, m, logger)
	fetcher := newFetcher(cfg, client, m, logger)
	store := index.NewStore()

	feedCfg := feed.DefaultConfig()
	feedCfg.BufferSize = cfg.Feed.BufferSize
	feedCfg.PingInterval = cfg.Feed.PingInterval
	hub := feed.NewHub(feedCfg, logger)

	ctrl := poller.New(controllerConfig(cfg), fetcher, client, store,
		poller.WithLogger(logger),
		poller.WithMetrics(m),
		poller.WithNotifier(hub),
	)

	srv := server.New(store,
		server.WithController(ctrl),
		server.WithMetrics(cfg.Metrics.Path, m.Handler()),
		server.WithFeed(hub),
		server.WithInstanceID(cfg.Instance.ID),
		server.WithLogger(logger),
	)
	httpServer := server.NewHTTPServer(fmt.Sprintf(":%d", cfg.Server.Port), srv.Handler())

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting query server", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if err := ctrl.Start(ctx); err != nil {
		return fmt.Errorf("start controller: %w", err)
	}

	logger.Info("mirror running",
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port),
	)

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = fmt.Errorf("query server: %w", err)
		cancel()
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := ctrl.Stop(shutdownCtx); err != nil {
		logger.Warn("controller stop", "error", err)
	}
	hub.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("query server shutdown", "error", err)
	}

	logger.Info("mirror stopped")
	return runErr
}

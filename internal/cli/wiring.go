package cli

import (
	"log/slog"

	"github.com/rickgao/auction-mirror/internal/api"
	"github.com/rickgao/auction-mirror/internal/config"
	"github.com/rickgao/auction-mirror/internal/metrics"
	"github.com/rickgao/auction-mirror/internal/poller"
	"github.com/rickgao/auction-mirror/internal/scrape"
)

// newClient builds the upstream client. m may be nil.
func newClient(cfg *config.MirrorConfig, m *metrics.Metrics, logger *slog.Logger) *api.Client {
	opts := []api.ClientOption{
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
		api.WithLogger(logger),
	}
	if cfg.API.RateLimit > 0 {
		opts = append(opts, api.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst))
	}
	if m != nil {
		opts = append(opts, api.WithObserver(m))
	}
	return api.NewClient(cfg.API.BaseURL, cfg.API.APIKey, opts...)
}

// newFetcher builds the page fetcher over client. m may be nil.
func newFetcher(cfg *config.MirrorConfig, client *api.Client, m *metrics.Metrics, logger *slog.Logger) *scrape.Fetcher {
	opts := []scrape.Option{scrape.WithLogger(logger)}
	if m != nil {
		opts = append(opts, scrape.WithRecorder(m))
	}
	return scrape.NewFetcher(client, scrape.Config{
		StaleRetryDelay: cfg.Sync.StaleRetryDelay,
		StaleRetryLimit: cfg.Sync.StaleRetryLimit,
		ScanConcurrency: cfg.Sync.ScanConcurrency,
		MaxNewPages:     cfg.Sync.MaxNewPages,
	}, opts...)
}

func controllerConfig(cfg *config.MirrorConfig) poller.Config {
	return poller.Config{
		Interval:             cfg.Sync.PollInterval,
		SafetyOffset:         cfg.Sync.SafetyOffset,
		ItemsRefreshInterval: cfg.Sync.ItemsRefreshInterval,
		DumpDir:              cfg.Debug.DumpDir,
	}
}

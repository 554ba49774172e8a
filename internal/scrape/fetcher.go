package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/auction-mirror/internal/api"
)

// Endpoint labels used in errors, logs and metrics.
const (
	EndpointAuctions = "auctions"
	EndpointEnded    = "auctions_ended"
)

// Source is the subset of the upstream client the fetcher needs.
type Source interface {
	GetAuctionsPage(ctx context.Context, page int) (*api.AuctionsPage, error)
	GetEndedAuctions(ctx context.Context) (*api.EndedAuctions, error)
}

// Recorder receives fetch events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	PageFetched(endpoint string)
	StaleRetry(endpoint string)
}

type nopRecorder struct{}

func (nopRecorder) PageFetched(string) {}
func (nopRecorder) StaleRetry(string)  {}

// Config bounds the fetcher.
type Config struct {
	StaleRetryDelay time.Duration // Wait between reads of a lagging page
	StaleRetryLimit int           // Retries per page before giving up
	ScanConcurrency int           // Parallel page reads in FullScan
	MaxNewPages     int           // Page cap for NewAuctions; 0 means totalPages
}

// Fetcher reads pages under the consistency rules of a Cycle.
type Fetcher struct {
	src    Source
	cfg    Config
	logger *slog.Logger
	rec    Recorder
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithRecorder sets the fetch event recorder.
func WithRecorder(r Recorder) Option {
	return func(f *Fetcher) {
		if r != nil {
			f.rec = r
		}
	}
}

// NewFetcher creates a fetcher over src.
func NewFetcher(src Source, cfg Config, opts ...Option) *Fetcher {
	if cfg.ScanConcurrency < 1 {
		cfg.ScanConcurrency = 1
	}
	if cfg.StaleRetryLimit < 0 {
		cfg.StaleRetryLimit = 0
	}

	f := &Fetcher{
		src:    src,
		cfg:    cfg,
		logger: slog.Default(),
		rec:    nopRecorder{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Page reads listing page n. With adopt set, the read may fix the cycle
// token.
func (f *Fetcher) Page(ctx context.Context, cycle *Cycle, n int, adopt bool) (*api.AuctionsPage, error) {
	return fetchConsistent(ctx, f, cycle, EndpointAuctions, n, adopt,
		func(ctx context.Context) (*api.AuctionsPage, int64, error) {
			p, err := f.src.GetAuctionsPage(ctx, n)
			if err != nil {
				return nil, 0, err
			}
			return p, p.LastUpdated, nil
		})
}

// Ended reads the ended-auctions feed. It always adopts.
func (f *Fetcher) Ended(ctx context.Context, cycle *Cycle) (*api.EndedAuctions, error) {
	return fetchConsistent(ctx, f, cycle, EndpointEnded, 0, true,
		func(ctx context.Context) (*api.EndedAuctions, int64, error) {
			e, err := f.src.GetEndedAuctions(ctx)
			if err != nil {
				return nil, 0, err
			}
			return e, e.LastUpdated, nil
		})
}

// fetchConsistent retries get until the token it returns satisfies the
// cycle, upstream overtakes the cycle, or the retry budget runs out.
func fetchConsistent[T any](
	ctx context.Context,
	f *Fetcher,
	cycle *Cycle,
	endpoint string,
	page int,
	adopt bool,
	get func(context.Context) (T, int64, error),
) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		result, observed, err := get(ctx)
		if err != nil {
			return zero, fmt.Errorf("fetch %s page %d: %w", endpoint, page, err)
		}
		f.rec.PageFetched(endpoint)

		v, want, err := cycle.check(observed, adopt)
		if err != nil {
			return zero, fmt.Errorf("fetch %s page %d: %w", endpoint, page, err)
		}
		switch v {
		case accept:
			return result, nil
		case stale:
			return zero, &StaleCycleError{Endpoint: endpoint, Page: page, Token: want, Observed: observed}
		}

		if attempt >= f.cfg.StaleRetryLimit {
			return zero, &LaggingPageError{
				Endpoint: endpoint,
				Page:     page,
				Want:     want,
				Observed: observed,
				Attempts: attempt + 1,
			}
		}

		f.logger.Debug("page behind cycle token, waiting",
			"endpoint", endpoint,
			"page", page,
			"observed", observed,
			"want", want,
			"attempt", attempt+1,
		)
		f.rec.StaleRetry(endpoint)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(f.cfg.StaleRetryDelay):
		}
	}
}

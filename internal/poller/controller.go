package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/auction-mirror/internal/api"
	"github.com/rickgao/auction-mirror/internal/catalog"
	"github.com/rickgao/auction-mirror/internal/decoder"
	"github.com/rickgao/auction-mirror/internal/index"
	"github.com/rickgao/auction-mirror/internal/metrics"
	"github.com/rickgao/auction-mirror/internal/scrape"
)

// ErrNotBootstrapped is returned by RunCycle before the first full scan
// has been published.
var ErrNotBootstrapped = errors.New("index not bootstrapped")

// maxLoggedAnomalies caps the ended-not-found ids included in a log line.
const maxLoggedAnomalies = 10

// ItemsSource provides the static items resource.
type ItemsSource interface {
	GetItems(ctx context.Context) (*api.ItemsResponse, error)
}

// Config holds controller configuration.
type Config struct {
	Interval             time.Duration // Upstream rebuild period (default: 59s)
	SafetyOffset         time.Duration // Margin after a rebuild (default: 14s)
	ItemsRefreshInterval time.Duration // Item table refresh period (default: 1h)
	DumpDir              string        // Debug dump directory; empty disables
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:             59 * time.Second,
		SafetyOffset:         14 * time.Second,
		ItemsRefreshInterval: time.Hour,
	}
}

// Controller owns the sync loop and is the index's only writer.
type Controller struct {
	cfg      Config
	fetcher  *scrape.Fetcher
	items    ItemsSource
	store    *index.Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
	notifier Notifier
	now      func() time.Time

	state atomic.Int32

	// cycleMu serializes cycles; it also guards the fields below.
	cycleMu      sync.Mutex
	itemsFetched time.Time

	lastMu sync.RWMutex
	last   *CycleSummary

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithNotifier sets the cycle summary notifier.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// New creates a new Controller.
func New(cfg Config, fetcher *scrape.Fetcher, items ItemsSource, store *index.Store, opts ...Option) *Controller {
	c := &Controller{
		cfg:     cfg,
		fetcher: fetcher,
		items:   items,
		store:   store,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Last returns the most recent cycle summary.
func (c *Controller) Last() (CycleSummary, bool) {
	c.lastMu.RLock()
	defer c.lastMu.RUnlock()

	if c.last == nil {
		return CycleSummary{}, false
	}
	return *c.last, true
}

// Start begins the sync loop.
func (c *Controller) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.run()

	c.logger.Info("sync controller started",
		"interval", c.cfg.Interval,
		"safety_offset", c.cfg.SafetyOffset,
	)

	return nil
}

// Stop gracefully shuts down the controller. An in-flight cycle is
// cancelled and the last published snapshot stays in place.
func (c *Controller) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("sync controller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main sync loop.
func (c *Controller) run() {
	defer c.wg.Done()

	var sleep time.Duration
	for c.State() == StateBootstrapping {
		summary, err := c.Bootstrap(c.ctx)
		if err == nil {
			sleep = summary.NextSleep
			break
		}
		if c.ctx.Err() != nil {
			return
		}
		if !c.wait(c.cfg.SafetyOffset) {
			return
		}
	}

	for {
		if !c.wait(sleep) {
			return
		}
		summary, _ := c.RunCycle(c.ctx)
		if c.ctx.Err() != nil {
			return
		}
		sleep = summary.NextSleep
	}
}

// wait sleeps for d, returning false if the controller was stopped.
func (c *Controller) wait(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-c.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Bootstrap builds the index from a full scan and publishes it. On
// success the controller becomes Steady.
func (c *Controller) Bootstrap(ctx context.Context) (CycleSummary, error) {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	summary, logger := c.begin(KindFull)

	items := c.store.Current().Items()
	fresh, refreshed := c.refreshItems(ctx, logger, true)
	if refreshed {
		items = fresh
	}

	cycle := scrape.NewCycle(0)
	res, err := c.fetcher.FullScan(ctx, cycle)
	if err != nil {
		return c.finish(summary, logger, fmt.Errorf("full scan: %w", err))
	}
	summary.Pages = res.Pages

	records, failures := decoder.DecodeBatch(res.Auctions, items, logger)
	summary.DecodeFailures = len(failures)
	summary.Added = len(records)

	snap := index.Build(records, items, res.Token, c.now())
	c.publish(snap, logger)
	if refreshed {
		c.itemsFetched = c.now()
	}
	c.state.Store(int32(StateSteady))

	return c.finish(summary, logger, nil)
}

// RunCycle runs one incremental cycle. On failure the working copy is
// discarded and the published snapshot is left unchanged.
func (c *Controller) RunCycle(ctx context.Context) (CycleSummary, error) {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	summary, logger := c.begin(KindIncremental)

	base := c.store.Current()
	if base.Token() == 0 {
		return c.finish(summary, logger, ErrNotBootstrapped)
	}

	wc := base.Edit()
	items := base.Items()
	fresh, refreshed := c.refreshItems(ctx, logger, false)
	if refreshed {
		items = fresh
		wc.SetItems(fresh)
	}

	cycle := scrape.NewCycle(base.Token())

	ended, err := c.fetcher.EndedAuctions(ctx, cycle)
	if err != nil {
		return c.finish(summary, logger, fmt.Errorf("ended feed: %w", err))
	}
	summary.Ended = len(ended)

	var missing []string
	for _, id := range ended {
		if err := wc.Remove(id); err != nil {
			if errors.Is(err, index.ErrEndedNotFound) {
				missing = append(missing, id)
				continue
			}
			return c.finish(summary, logger, err)
		}
		summary.Removed++
	}
	summary.Anomalies = len(missing)
	if len(missing) > 0 {
		logger.Warn("ended auctions not in index",
			"count", len(missing),
			"auction_ids", missing[:min(len(missing), maxLoggedAnomalies)],
		)
	}

	res, err := c.fetcher.NewAuctions(ctx, cycle, wc.Contains)
	if err != nil {
		return c.finish(summary, logger, fmt.Errorf("new auctions: %w", err))
	}
	summary.Pages = res.Pages

	records, failures := decoder.DecodeBatch(res.Auctions, items, logger)
	summary.DecodeFailures = len(failures)
	for i := range records {
		wc.Insert(records[i])
	}
	summary.Added = len(records)

	c.publish(wc.Commit(cycle.Token(), c.now()), logger)
	if refreshed {
		c.itemsFetched = c.now()
	}

	return c.finish(summary, logger, nil)
}

// publish swaps in snap and writes the debug dump when enabled.
func (c *Controller) publish(snap *index.Snapshot, logger *slog.Logger) {
	c.store.Swap(snap)

	if c.cfg.DumpDir == "" {
		return
	}
	if err := index.WriteDump(c.cfg.DumpDir, snap); err != nil {
		logger.Warn("failed to write debug dump", "dir", c.cfg.DumpDir, "error", err)
	}
}

// refreshItems reloads the item table when forced or stale. Failures are
// logged and the current table is kept. The caller marks the table fresh
// once it has been published.
func (c *Controller) refreshItems(ctx context.Context, logger *slog.Logger, force bool) (*catalog.ItemTable, bool) {
	if c.items == nil {
		return nil, false
	}
	if !force && c.now().Sub(c.itemsFetched) < c.cfg.ItemsRefreshInterval {
		return nil, false
	}

	resp, err := c.items.GetItems(ctx)
	if err != nil {
		logger.Warn("failed to refresh item table, keeping previous", "error", err)
		return nil, false
	}

	table := catalog.NewItemTable(api.ToItemInfos(resp.Items))
	logger.Debug("item table refreshed", "items", table.Len())
	return table, true
}

func (c *Controller) begin(kind string) (CycleSummary, *slog.Logger) {
	id := uuid.NewString()
	logger := c.logger.With("cycle_id", id, "kind", kind)
	logger.Debug("cycle started")
	return CycleSummary{ID: id, Kind: kind, StartedAt: c.now()}, logger
}

// finish completes the summary, records it and computes the next sleep.
func (c *Controller) finish(s CycleSummary, logger *slog.Logger, err error) (CycleSummary, error) {
	now := c.now()
	s.Duration = now.Sub(s.StartedAt)

	current := c.store.Current()
	s.Token = current.Token()
	s.LiveAuctions = current.Len()
	s.Items = current.ItemCount()
	s.NextSleep = NextSleep(current.Token(), now, c.cfg.Interval, c.cfg.SafetyOffset)

	if err != nil {
		s.Error = err.Error()
		logger.Error("cycle failed",
			"error", err,
			"duration", s.Duration,
			"next_sleep", s.NextSleep,
		)
	} else {
		logger.Info("cycle complete",
			"token", s.Token,
			"pages", s.Pages,
			"added", s.Added,
			"removed", s.Removed,
			"anomalies", s.Anomalies,
			"decode_failures", s.DecodeFailures,
			"live_auctions", s.LiveAuctions,
			"duration", s.Duration,
			"next_sleep", s.NextSleep,
		)
	}

	c.metrics.RecordCycle(s.Kind, s.Duration, err)
	c.metrics.SetNextSleep(s.NextSleep)
	if err == nil {
		c.metrics.RecordChanges(s.Added, s.Removed, s.Anomalies)
		c.metrics.RecordDecodeErrors(s.DecodeFailures)
		c.metrics.SetIndexSize(s.Items, s.LiveAuctions)
	}

	c.lastMu.Lock()
	c.last = &s
	c.lastMu.Unlock()

	if c.notifier != nil {
		c.notifier.Notify(s)
	}

	return s, err
}

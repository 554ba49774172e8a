package poller

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/auction-mirror/internal/api"
	"github.com/rickgao/auction-mirror/internal/index"
	"github.com/rickgao/auction-mirror/internal/metrics"
	"github.com/rickgao/auction-mirror/internal/nbt"
	"github.com/rickgao/auction-mirror/internal/scrape"
	"github.com/rickgao/auction-mirror/internal/testutil"
)

const (
	token1 = int64(1700000000000)
	token2 = token1 + 60000
)

type summaries struct {
	mu  sync.Mutex
	all []CycleSummary
}

func (s *summaries) Notify(c CycleSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = append(s.all, c)
}

func (s *summaries) list() []CycleSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CycleSummary(nil), s.all...)
}

type fixture struct {
	up       *testutil.Upstream
	store    *index.Store
	ctrl     *Controller
	notified *summaries
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	up := testutil.NewUpstream(t)
	up.SetItems(
		api.Item{ID: "ITEM_0", Name: "Item Zero", Category: "ACCESSORY"},
		api.Item{ID: "ITEM_1", Name: "Item One", Category: "ACCESSORY"},
	)
	up.SetAuctions(token1, testutil.Auctions("a", 250))

	client := up.Client()
	fetcher := scrape.NewFetcher(client, scrape.Config{
		StaleRetryDelay: time.Millisecond,
		StaleRetryLimit: 3,
		ScanConcurrency: 4,
	})

	f := &fixture{
		up:       up,
		store:    index.NewStore(),
		notified: &summaries{},
		metrics:  metrics.New("test"),
	}
	clock := func() time.Time { return time.UnixMilli(token2).Add(20 * time.Second) }
	f.ctrl = New(cfg, fetcher, client, f.store,
		WithNotifier(f.notified),
		WithMetrics(f.metrics),
		WithClock(clock),
	)
	return f
}

// advance publishes the next upstream listing: two new bin listings in
// front, one auction ended.
func (f *fixture) advance() {
	listing := []api.Auction{
		testutil.Auction("new-1", "ITEM_0", true, 5),
		testutil.Auction("new-2", "NEW_ITEM", true, 6),
	}
	for _, a := range testutil.Auctions("a", 250) {
		if a.UUID != "a-17" {
			listing = append(listing, a)
		}
	}
	f.up.SetAuctions(token2, listing)
	f.up.SetEnded("a-17")
}

func TestNextSleep(t *testing.T) {
	interval, offset := 59*time.Second, 14*time.Second
	last := time.Unix(1700000000, 0)

	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{"right after rebuild", last.Add(3 * time.Second), 70 * time.Second},
		{"mid interval", last.Add(40 * time.Second), 33 * time.Second},
		{"exactly due", last.Add(73 * time.Second), offset},
		{"overdue", last.Add(5 * time.Minute), offset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextSleep(last.UnixMilli(), tt.now, interval, offset))
		})
	}

	assert.Equal(t, offset, NextSleep(0, time.Now(), interval, offset), "no token yet")
}

// assertIndexConsistent checks that the live auctions reachable through
// the item buckets match the reverse index size.
func assertIndexConsistent(t *testing.T, st *index.Store) {
	t.Helper()
	total := 0
	for _, id := range st.ListItemIDs() {
		total += len(st.GetAuctions(id))
	}
	assert.Equal(t, st.Current().Len(), total)
}

func TestController_BootstrapThenIncremental(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	assert.Equal(t, StateBootstrapping, f.ctrl.State())

	boot, err := f.ctrl.Bootstrap(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateSteady, f.ctrl.State())
	assert.Equal(t, KindFull, boot.Kind)
	assert.Equal(t, 3, boot.Pages)
	assert.Equal(t, 250, boot.LiveAuctions)
	assert.Equal(t, token1, f.store.Current().Token())
	assert.Equal(t, "ACCESSORY", f.store.Current().Items().Category("ITEM_1"))
	assertIndexConsistent(t, f.store)

	f.advance()
	cyc, err := f.ctrl.RunCycle(ctx)
	require.NoError(t, err)

	assert.Equal(t, KindIncremental, cyc.Kind)
	assert.Equal(t, 2, cyc.Added)
	assert.Equal(t, 1, cyc.Removed)
	assert.Zero(t, cyc.Anomalies)
	assert.Equal(t, 1, cyc.Pages, "scan stops at the first known bin listing")
	assert.Equal(t, 251, cyc.LiveAuctions)
	assert.Equal(t, token2, cyc.Token)
	assert.True(t, cyc.OK())

	snap := f.store.Current()
	assert.Equal(t, 251, snap.Len())
	assert.True(t, snap.Contains("new-1"))
	assert.True(t, snap.Contains("new-2"))
	assert.False(t, snap.Contains("a-17"))
	assert.Contains(t, f.store.ListItemIDs(), "NEW_ITEM")
	assertIndexConsistent(t, f.store)

	// token2 + 59s + 14s - (token2 + 20s)
	assert.Equal(t, 53*time.Second, cyc.NextSleep)

	got := f.notified.list()
	require.Len(t, got, 2)
	assert.Equal(t, KindFull, got[0].Kind)
	assert.Equal(t, KindIncremental, got[1].Kind)
	assert.NotEqual(t, got[0].ID, got[1].ID)

	last, ok := f.ctrl.Last()
	require.True(t, ok)
	assert.Equal(t, cyc.ID, last.ID)
}

func TestController_RunCycleBeforeBootstrap(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	s, err := f.ctrl.RunCycle(context.Background())
	assert.ErrorIs(t, err, ErrNotBootstrapped)
	assert.False(t, s.OK())
}

func TestController_FailedCycleKeepsSnapshot(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
		check func(t *testing.T, err error)
	}{
		{
			name: "ended feed error",
			setup: func(f *fixture) {
				f.up.Fail(testutil.EndedPath, http.StatusBadGateway, http.StatusBadGateway)
			},
			check: func(t *testing.T, err error) {
				var fetchErr *api.FetchError
				assert.True(t, errors.As(err, &fetchErr))
			},
		},
		{
			name: "page newer than cycle token",
			setup: func(f *fixture) {
				f.up.QueueTokens(testutil.PageKey(0), token2+60000)
			},
			check: func(t *testing.T, err error) {
				var staleErr *scrape.StaleCycleError
				assert.True(t, errors.As(err, &staleErr))
			},
		},
		{
			name: "upstream never rolls over",
			setup: func(f *fixture) {
				f.up.SetAuctions(token1, testutil.Auctions("a", 250))
			},
			check: func(t *testing.T, err error) {
				var lagErr *scrape.LaggingPageError
				assert.True(t, errors.As(err, &lagErr))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, DefaultConfig())
			ctx := context.Background()
			_, err := f.ctrl.Bootstrap(ctx)
			require.NoError(t, err)
			before := f.store.Current()

			f.advance()
			tt.setup(f)

			s, err := f.ctrl.RunCycle(ctx)
			require.Error(t, err)
			tt.check(t, err)

			assert.Same(t, before, f.store.Current(), "published snapshot unchanged")
			assert.Equal(t, 250, before.Len())
			assert.True(t, before.Contains("a-17"))
			assert.False(t, s.OK())
			assert.Equal(t, 14*time.Second, s.NextSleep, "overdue cycle waits the offset")
		})
	}
}

func TestController_EndedNotFound(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()
	_, err := f.ctrl.Bootstrap(ctx)
	require.NoError(t, err)

	f.advance()
	f.up.SetEnded("a-17", "ghost-1", "ghost-2")

	s, err := f.ctrl.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Ended)
	assert.Equal(t, 1, s.Removed)
	assert.Equal(t, 2, s.Anomalies)
	assert.Equal(t, 251, f.store.Current().Len())
}

func TestController_DecodeFailureSkipped(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()
	_, err := f.ctrl.Bootstrap(ctx)
	require.NoError(t, err)

	bad := testutil.Auction("broken", "X", true, 1)
	bad.ItemBytes = "%%%"
	good := testutil.Auction("fine", "ITEM_0", true, 1)
	good.ItemBytes = testutil.ItemBytes("ITEM_0", 1, nbt.Compound{"modifier": nbt.String("shiny")})
	f.up.SetAuctions(token2, append([]api.Auction{bad, good}, testutil.Auctions("a", 250)...))

	s, err := f.ctrl.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.DecodeFailures)
	assert.Equal(t, 1, s.Added)
	assert.False(t, f.store.Current().Contains("broken"))

	node := f.store.GetAttributeCatalog("ITEM_1")
	assert.True(t, node.Child("modifier").Has("shiny"), "catalog is keyed by category")
}

func TestController_ItemsRefreshFailureKeepsTable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ItemsRefreshInterval = 0
	f := newFixture(t, cfg)
	ctx := context.Background()
	_, err := f.ctrl.Bootstrap(ctx)
	require.NoError(t, err)

	f.advance()
	f.up.Fail(testutil.ItemsPath, http.StatusInternalServerError, http.StatusInternalServerError)

	_, err = f.ctrl.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.Current().Items().Len())
}

func TestController_ItemsRefreshRetriedAfterFailedCycle(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()
	_, err := f.ctrl.Bootstrap(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, f.up.Hits(testutil.ItemsPath))

	later := time.UnixMilli(token2).Add(2 * time.Hour)
	f.ctrl.now = func() time.Time { return later }

	f.advance()
	f.up.Fail(testutil.EndedPath, http.StatusBadGateway, http.StatusBadGateway)
	_, err = f.ctrl.RunCycle(ctx)
	require.Error(t, err)
	assert.Equal(t, 2, f.up.Hits(testutil.ItemsPath))

	_, err = f.ctrl.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, f.up.Hits(testutil.ItemsPath), "table from the failed cycle was never published")

	_, err = f.ctrl.RunCycle(ctx)
	require.Error(t, err, "upstream has not rolled over")
	assert.Equal(t, 3, f.up.Hits(testutil.ItemsPath))
}

func TestController_DumpDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DumpDir = t.TempDir()
	f := newFixture(t, cfg)

	_, err := f.ctrl.Bootstrap(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, cfg.DumpDir+"/"+index.DumpIndexFile)
}

func TestController_StartStop(t *testing.T) {
	cfg := Config{
		Interval:             time.Millisecond,
		SafetyOffset:         5 * time.Millisecond,
		ItemsRefreshInterval: time.Hour,
	}
	f := newFixture(t, cfg)

	// The first bootstrap attempt fails; the controller retries after the
	// safety offset.
	f.up.Fail(testutil.AuctionsPath, http.StatusServiceUnavailable, http.StatusServiceUnavailable)

	ctx := context.Background()
	require.NoError(t, f.ctrl.Start(ctx))

	require.Eventually(t, func() bool {
		return f.ctrl.State() == StateSteady
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, 250, f.store.Current().Len())

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, f.ctrl.Stop(stopCtx))

	got := f.notified.list()
	require.GreaterOrEqual(t, len(got), 2)
	assert.False(t, got[0].OK())
	assert.Equal(t, KindFull, got[0].Kind)
}

func TestController_ReadsDuringCycles(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()
	_, err := f.ctrl.Bootstrap(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				stats := f.store.Stats()
				assert.Contains(t, []int{250, 251}, stats.Auctions)
				for _, id := range f.store.ListItemIDs() {
					f.store.GetAuctions(id)
					f.store.GetAttributeCatalog(id)
				}
			}
		}()
	}

	f.advance()
	_, err = f.ctrl.RunCycle(ctx)
	close(stop)
	wg.Wait()
	require.NoError(t, err)
}

package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordCycle("incremental", time.Second, nil)
	m.RecordChanges(1, 2, 3)
	m.RecordDecodeErrors(4)
	m.SetIndexSize(1, 2)
	m.SetNextSleep(time.Second)
	m.PageFetched("auctions")
	m.StaleRetry("auctions")
	m.ObserveRequest("/skyblock/auctions", time.Millisecond, nil)
	assert.Nil(t, m.Registry())
}

func TestRecord(t *testing.T) {
	m := New("test")

	m.RecordCycle("incremental", 2*time.Second, nil)
	m.RecordCycle("incremental", time.Second, errors.New("boom"))
	m.RecordCycle("full", 10*time.Second, nil)
	assert.Equal(t, 1.0, value(t, m, "test_sync_cycles_total", "incremental", StatusOK))
	assert.Equal(t, 1.0, value(t, m, "test_sync_cycles_total", "incremental", StatusFailed))
	assert.Equal(t, 1.0, value(t, m, "test_sync_cycles_total", "full", StatusOK))
	assert.Greater(t, value(t, m, "test_sync_last_successful_cycle_timestamp"), 0.0)

	m.RecordChanges(3, 2, 1)
	m.RecordDecodeErrors(5)
	assert.Equal(t, 3.0, value(t, m, "test_sync_auctions_added_total"))
	assert.Equal(t, 2.0, value(t, m, "test_sync_auctions_removed_total"))
	assert.Equal(t, 1.0, value(t, m, "test_sync_ended_not_found_total"))
	assert.Equal(t, 5.0, value(t, m, "test_decode_errors_total"))

	m.SetIndexSize(7, 250)
	m.SetNextSleep(45 * time.Second)
	assert.Equal(t, 7.0, value(t, m, "test_index_items"))
	assert.Equal(t, 250.0, value(t, m, "test_index_live_auctions"))
	assert.Equal(t, 45.0, value(t, m, "test_sync_next_sleep_seconds"))

	m.PageFetched("auctions")
	m.PageFetched("auctions")
	m.StaleRetry("auctions_ended")
	m.ObserveRequest("/skyblock/auctions", time.Millisecond, errors.New("x"))
	assert.Equal(t, 2.0, value(t, m, "test_upstream_pages_fetched_total", "auctions"))
	assert.Equal(t, 1.0, value(t, m, "test_upstream_stale_page_retries_total", "auctions_ended"))
	assert.Equal(t, 1.0, value(t, m, "test_upstream_fetch_errors_total", "/skyblock/auctions"))
}

func TestHandler(t *testing.T) {
	m := New("")
	m.PageFetched("auctions")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `auction_mirror_upstream_pages_fetched_total{endpoint="auctions"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

// value reads a counter or gauge sample whose label values match, in
// label-name order.
func value(t *testing.T, m *Metrics, name string, labelValues ...string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := metric.GetLabel()
			if len(labels) != len(labelValues) {
				continue
			}
			match := true
			for i, l := range labels {
				if l.GetValue() != labelValues[i] {
					match = false
				}
			}
			if !match {
				continue
			}
			if c := metric.GetCounter(); c != nil {
				return c.GetValue()
			}
			return metric.GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s%v not found", name, labelValues)
	return 0
}

// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Sync cycles by kind and outcome, with durations
//   - Upstream page reads, stale-page retries and request latency
//   - Decode failures and ended-not-found anomalies
//   - Index size and the next scheduled sleep
package metrics

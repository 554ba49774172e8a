// Package poller implements the sync controller.
//
// The Controller:
//   - Bootstraps the index with a full scan, retrying after the safety
//     offset until one succeeds
//   - Then runs one incremental cycle per upstream rebuild: ended feed,
//     removals, new-listing scan, decode, insert, publish
//   - Sleeps until the next expected rebuild, derived from the last
//     cycle's freshness token
//   - Refreshes the item table on its own, slower schedule
//   - Publishes a CycleSummary per cycle to metrics and an optional notifier
package poller

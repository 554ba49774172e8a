// Package index holds the mirrored auction state.
//
// A Snapshot is an immutable view: per-item buckets of AuctionRecords, a
// reverse index from auction id to item id, the attribute catalog and the
// item table. Cycles build the next snapshot on a WorkingCopy, which
// copies a bucket or catalog key only when it first modifies it, and
// publish it with Store.Swap. Readers see either the old or the new
// snapshot, never a mix.
package index

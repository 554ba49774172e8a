package index

import (
	"errors"
	"fmt"
	"time"

	"github.com/rickgao/auction-mirror/internal/catalog"
	"github.com/rickgao/auction-mirror/internal/model"
)

// ErrEndedNotFound is returned by Remove for an auction the index never
// saw, typically one that started and ended between two cycles.
var ErrEndedNotFound = errors.New("ended auction not in index")

// WorkingCopy is a mutable copy of a snapshot owned by one cycle. It is
// not safe for concurrent use and must not be used after Commit.
//
// The bucket map and the reverse index are always updated together, so
// the reverse index holds exactly one entry per bucketed record.
type WorkingCopy struct {
	buckets map[string]bucket
	owned   map[string]bool // buckets already copied from the base snapshot
	reverse map[string]string
	attrs   *catalog.Attributes
	items   *catalog.ItemTable
}

// bucketForWrite returns a bucket this working copy may modify.
func (w *WorkingCopy) bucketForWrite(itemID string) bucket {
	b, ok := w.buckets[itemID]
	switch {
	case !ok:
		b = make(bucket)
		w.buckets[itemID] = b
		w.owned[itemID] = true
	case !w.owned[itemID]:
		cp := make(bucket, len(b)+1)
		for id, rec := range b {
			cp[id] = rec
		}
		b = cp
		w.buckets[itemID] = b
		w.owned[itemID] = true
	}
	return b
}

// Remove deletes an auction from its bucket and from the reverse index.
// Empty buckets are dropped.
func (w *WorkingCopy) Remove(auctionID string) error {
	itemID, ok := w.reverse[auctionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEndedNotFound, auctionID)
	}

	b := w.bucketForWrite(itemID)
	delete(b, auctionID)
	delete(w.reverse, auctionID)
	if len(b) == 0 {
		delete(w.buckets, itemID)
		delete(w.owned, itemID)
	}
	return nil
}

// Insert adds a record, replacing any record with the same auction id, and
// folds its attributes into the catalog.
func (w *WorkingCopy) Insert(rec model.AuctionRecord) {
	if prev, ok := w.reverse[rec.AuctionID]; ok && prev != rec.ItemID {
		_ = w.Remove(rec.AuctionID)
	}

	b := w.bucketForWrite(rec.ItemID)
	b[rec.AuctionID] = &rec
	w.reverse[rec.AuctionID] = rec.ItemID

	w.attrs.Merge(w.items.Category(rec.ItemID), rec.Attributes)
}

// Contains reports whether auctionID is currently in the working copy.
func (w *WorkingCopy) Contains(auctionID string) bool {
	_, ok := w.reverse[auctionID]
	return ok
}

// Len is the number of auctions in the working copy.
func (w *WorkingCopy) Len() int {
	return len(w.reverse)
}

// SetItems replaces the item table. It affects the catalog key of records
// inserted afterwards.
func (w *WorkingCopy) SetItems(items *catalog.ItemTable) {
	if items != nil {
		w.items = items
	}
}

// Commit freezes the working copy into a snapshot.
func (w *WorkingCopy) Commit(token int64, now time.Time) *Snapshot {
	s := &Snapshot{
		buckets:     w.buckets,
		reverse:     w.reverse,
		attrs:       w.attrs,
		items:       w.items,
		token:       token,
		publishedAt: now,
	}
	*w = WorkingCopy{}
	return s
}

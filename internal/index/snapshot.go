package index

import (
	"time"

	"github.com/rickgao/auction-mirror/internal/catalog"
	"github.com/rickgao/auction-mirror/internal/model"
)

// bucket maps auction id to record for one item.
type bucket map[string]*model.AuctionRecord

// Snapshot is a published, read-only index state.
type Snapshot struct {
	buckets map[string]bucket
	reverse map[string]string
	attrs   *catalog.Attributes
	items   *catalog.ItemTable

	token       int64
	publishedAt time.Time
}

// Empty returns the snapshot a store starts with.
func Empty() *Snapshot {
	return &Snapshot{
		buckets: make(map[string]bucket),
		reverse: make(map[string]string),
		attrs:   catalog.NewAttributes(),
		items:   catalog.NewItemTable(nil),
	}
}

// Build indexes records from a full scan into a fresh snapshot.
func Build(records []model.AuctionRecord, items *catalog.ItemTable, token int64, now time.Time) *Snapshot {
	wc := Empty().Edit()
	wc.SetItems(items)
	for i := range records {
		wc.Insert(records[i])
	}
	return wc.Commit(token, now)
}

// Token is the freshness token of the cycle that produced the snapshot.
func (s *Snapshot) Token() int64 { return s.token }

// PublishedAt is when the snapshot was committed.
func (s *Snapshot) PublishedAt() time.Time { return s.publishedAt }

// Items returns the item table.
func (s *Snapshot) Items() *catalog.ItemTable { return s.items }

// Attributes returns the attribute catalog. It must not be modified.
func (s *Snapshot) Attributes() *catalog.Attributes { return s.attrs }

// Len is the number of live auctions.
func (s *Snapshot) Len() int { return len(s.reverse) }

// ItemCount is the number of items with at least one live auction.
func (s *Snapshot) ItemCount() int { return len(s.buckets) }

// Contains reports whether auctionID is live.
func (s *Snapshot) Contains(auctionID string) bool {
	_, ok := s.reverse[auctionID]
	return ok
}

// Record returns a live auction by id.
func (s *Snapshot) Record(auctionID string) (model.AuctionRecord, bool) {
	itemID, ok := s.reverse[auctionID]
	if !ok {
		return model.AuctionRecord{}, false
	}
	rec, ok := s.buckets[itemID][auctionID]
	if !ok {
		return model.AuctionRecord{}, false
	}
	return *rec, true
}

// Edit starts a working copy based on s.
func (s *Snapshot) Edit() *WorkingCopy {
	wc := &WorkingCopy{
		buckets: make(map[string]bucket, len(s.buckets)),
		owned:   make(map[string]bool),
		reverse: make(map[string]string, len(s.reverse)),
		attrs:   s.attrs.Clone(),
		items:   s.items,
	}
	for itemID, b := range s.buckets {
		wc.buckets[itemID] = b
	}
	for auctionID, itemID := range s.reverse {
		wc.reverse[auctionID] = itemID
	}
	return wc
}

package index

import (
	"sort"
	"sync"
	"time"

	"github.com/rickgao/auction-mirror/internal/catalog"
	"github.com/rickgao/auction-mirror/internal/model"
)

// Store publishes snapshots to concurrent readers.
type Store struct {
	mu      sync.RWMutex
	current *Snapshot
}

// Stats summarizes the published snapshot.
type Stats struct {
	Items       int       `json:"items"`
	Auctions    int       `json:"auctions"`
	CatalogKeys int       `json:"catalog_keys"`
	KnownItems  int       `json:"known_items"`
	Token       int64     `json:"token"`
	PublishedAt time.Time `json:"published_at"`
}

// NewStore returns a store holding an empty snapshot.
func NewStore() *Store {
	return &Store{current: Empty()}
}

// Swap publishes s and returns the snapshot it replaced.
func (st *Store) Swap(s *Snapshot) *Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()

	prev := st.current
	st.current = s
	return prev
}

// Current returns the published snapshot.
func (st *Store) Current() *Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()

	return st.current
}

// GetAuctions returns a copy of the item's bucket. Unknown items yield an
// empty map.
func (st *Store) GetAuctions(itemID string) map[string]model.AuctionRecord {
	st.mu.RLock()
	defer st.mu.RUnlock()

	b := st.current.buckets[itemID]
	out := make(map[string]model.AuctionRecord, len(b))
	for id, rec := range b {
		out[id] = *rec
	}
	return out
}

// ListItemIDs returns the ids of items with live auctions, sorted.
func (st *Store) ListItemIDs() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	ids := make([]string, 0, len(st.current.buckets))
	for id := range st.current.buckets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetAttributeCatalog returns a copy of the catalog node for the item's
// category. Unknown items yield an empty node.
func (st *Store) GetAttributeCatalog(itemID string) *catalog.Node {
	st.mu.RLock()
	defer st.mu.RUnlock()

	key := st.current.items.Category(itemID)
	if n := st.current.attrs.Lookup(key).Clone(); n != nil {
		return n
	}
	return &catalog.Node{}
}

// ItemName returns the display name for an item id.
func (st *Store) ItemName(itemID string) string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	return st.current.items.DisplayName(itemID)
}

// ResolveItem maps a display name or id to an item id.
func (st *Store) ResolveItem(name string) string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	return st.current.items.Resolve(name)
}

// Stats summarizes the published snapshot.
func (st *Store) Stats() Stats {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s := st.current
	return Stats{
		Items:       len(s.buckets),
		Auctions:    len(s.reverse),
		CatalogKeys: s.attrs.Len(),
		KnownItems:  s.items.Len(),
		Token:       s.token,
		PublishedAt: s.publishedAt,
	}
}

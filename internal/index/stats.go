package index

import (
	"slices"
	"strings"

	"github.com/rickgao/auction-mirror/internal/model"
)

// PriceStats summarizes the prices of an item's live auctions.
type PriceStats struct {
	ItemID string  `json:"item_id"`
	Count  int     `json:"count"`
	Min    int64   `json:"min"`
	Max    int64   `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Mode   int64   `json:"mode"`
}

// PriceStats computes price statistics for an item. A non-nil bin keeps
// only bin (true) or bid (false) listings. An empty selection yields a
// zero Count.
func (st *Store) PriceStats(itemID string, bin *bool) PriceStats {
	st.mu.RLock()
	prices := make([]int64, 0, len(st.current.buckets[itemID]))
	for _, rec := range st.current.buckets[itemID] {
		if bin == nil || rec.Bin == *bin {
			prices = append(prices, rec.Price)
		}
	}
	st.mu.RUnlock()

	return summarize(itemID, prices)
}

func summarize(itemID string, prices []int64) PriceStats {
	s := PriceStats{ItemID: itemID, Count: len(prices)}
	if len(prices) == 0 {
		return s
	}

	slices.Sort(prices)
	s.Min, s.Max = prices[0], prices[len(prices)-1]

	var sum float64
	counts := make(map[int64]int, len(prices))
	best := 0
	for _, p := range prices {
		sum += float64(p)
		counts[p]++
		// Ties go to the lowest price since prices are sorted.
		if counts[p] > best {
			best, s.Mode = counts[p], p
		}
	}
	s.Mean = sum / float64(len(prices))

	mid := len(prices) / 2
	if len(prices)%2 == 1 {
		s.Median = float64(prices[mid])
	} else {
		s.Median = float64(prices[mid-1]+prices[mid]) / 2
	}
	return s
}

// FilterListing returns the records whose bin flag matches bin, or all of
// them when bin is nil, sorted by price then auction id.
func FilterListing(records map[string]model.AuctionRecord, bin *bool) []model.AuctionRecord {
	out := make([]model.AuctionRecord, 0, len(records))
	for _, rec := range records {
		if bin == nil || rec.Bin == *bin {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b model.AuctionRecord) int {
		if a.Price != b.Price {
			if a.Price < b.Price {
				return -1
			}
			return 1
		}
		return strings.Compare(a.AuctionID, b.AuctionID)
	})
	return out
}

// ItemCount is the number of live auctions for one item.
type ItemCount struct {
	ItemID   string `json:"item_id"`
	Auctions int    `json:"auctions"`
}

// ItemCounts returns the live auction count per item, sorted by item id.
func (st *Store) ItemCounts() []ItemCount {
	st.mu.RLock()
	out := make([]ItemCount, 0, len(st.current.buckets))
	for id, b := range st.current.buckets {
		out = append(out, ItemCount{ItemID: id, Auctions: len(b)})
	}
	st.mu.RUnlock()

	slices.SortFunc(out, func(a, b ItemCount) int { return strings.Compare(a.ItemID, b.ItemID) })
	return out
}

// TopItems returns the n items with the most live auctions, ties broken by
// item id.
func (st *Store) TopItems(n int) []ItemCount {
	counts := st.ItemCounts()
	slices.SortStableFunc(counts, func(a, b ItemCount) int { return b.Auctions - a.Auctions })
	if n < len(counts) {
		counts = counts[:n]
	}
	return counts
}

package api

import (
	"time"

	"github.com/rickgao/auction-mirror/internal/model"
)

// MillisToTime converts epoch milliseconds to a UTC time. Zero stays zero.
func MillisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// ToItemInfo converts an API item to the domain model.
func ToItemInfo(it Item) model.ItemInfo {
	return model.ItemInfo{
		ID:       it.ID,
		Name:     it.Name,
		Category: it.Category,
		Tier:     it.Tier,
	}
}

// ToItemInfos converts the items resource, skipping entries without an id.
func ToItemInfos(items []Item) []model.ItemInfo {
	out := make([]model.ItemInfo, 0, len(items))
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		out = append(out, ToItemInfo(it))
	}
	return out
}

// EndedIDs extracts the auction ids from the ended feed.
func EndedIDs(resp *EndedAuctions) []string {
	ids := make([]string, 0, len(resp.Auctions))
	for _, a := range resp.Auctions {
		ids = append(ids, a.AuctionID)
	}
	return ids
}

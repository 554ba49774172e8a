package model

import "time"

// Listing kinds.
const (
	ListingBin     = "bin"     // Fixed-price listing
	ListingAuction = "auction" // Open bid listing
)

// AuctionRecord is one live auction with its decoded item payload.
// Records are immutable once created; the index shares them between snapshots.
type AuctionRecord struct {
	AuctionID  string `json:"auction_id"` // Unique upstream auction id
	ItemID     string `json:"item_id"`    // Decoded item id, after pet/rune rewrites
	Name       string `json:"name"`       // Display name as listed
	Tier       string `json:"tier"`       // Rarity tier
	Category   string `json:"category"`   // Upstream listing category
	Seller     string `json:"seller"`     // Auctioneer uuid
	Count      int    `json:"count"`      // Stack size
	Attributes Value  `json:"attributes"` // Extra attributes (compound)

	Bin         bool  `json:"bin"`
	StartingBid int64 `json:"starting_bid"`
	HighestBid  int64 `json:"highest_bid"`
	Price       int64 `json:"price"` // See ListingPrice

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Listing returns ListingBin or ListingAuction.
func (r *AuctionRecord) Listing() string {
	if r.Bin {
		return ListingBin
	}
	return ListingAuction
}

// ListingPrice is the price a buyer currently faces: the asking price for
// bin listings, the highest bid for bid listings, or the starting bid when
// nobody has bid yet.
func ListingPrice(bin bool, startingBid, highestBid int64) int64 {
	if bin || highestBid <= 0 {
		return startingBid
	}
	return highestBid
}

// ItemInfo is static item metadata from the upstream items resource.
type ItemInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Tier     string `json:"tier,omitempty"`
}

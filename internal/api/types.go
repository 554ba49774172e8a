package api

// AuctionsPage from GET /skyblock/auctions?page=N
type AuctionsPage struct {
	Success       bool      `json:"success"`
	Page          int       `json:"page"`
	TotalPages    int       `json:"totalPages"`
	TotalAuctions int       `json:"totalAuctions"`
	LastUpdated   int64     `json:"lastUpdated"`
	Auctions      []Auction `json:"auctions"`
}

// Auction is a single active listing as returned by the listings endpoint.
type Auction struct {
	UUID       string `json:"uuid"`
	Auctioneer string `json:"auctioneer"`
	ItemName   string `json:"item_name"`
	Tier       string `json:"tier"`
	Category   string `json:"category"`
	ItemBytes  string `json:"item_bytes"`
	Bin        bool   `json:"bin"`
	Claimed    bool   `json:"claimed"`

	// Coins
	StartingBid      int64 `json:"starting_bid"`
	HighestBidAmount int64 `json:"highest_bid_amount"`

	// Epoch milliseconds
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// EndedAuctions from GET /skyblock/auctions_ended
type EndedAuctions struct {
	Success     bool           `json:"success"`
	LastUpdated int64          `json:"lastUpdated"`
	Auctions    []EndedAuction `json:"auctions"`
}

// EndedAuction is an auction that ended within the last minute.
type EndedAuction struct {
	AuctionID string `json:"auction_id"`
	Seller    string `json:"seller"`
	Buyer     string `json:"buyer"`
	Timestamp int64  `json:"timestamp"`
	Price     int64  `json:"price"`
	Bin       bool   `json:"bin"`
	ItemBytes string `json:"item_bytes"`
}

// ItemsResponse from GET /resources/skyblock/items
type ItemsResponse struct {
	Success     bool   `json:"success"`
	LastUpdated int64  `json:"lastUpdated"`
	Items       []Item `json:"items"`
}

// Item is static item metadata.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Tier     string `json:"tier"`
	Material string `json:"material"`
}

package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/auction-mirror/internal/api"
)

// DefaultPageSize mirrors the upstream's listings per page.
const DefaultPageSize = 100

// Upstream paths served by the fake.
const (
	AuctionsPath = "/skyblock/auctions"
	EndedPath    = "/skyblock/auctions_ended"
	ItemsPath    = "/resources/skyblock/items"
)

// EndedKey is the token-queue key for the ended feed.
const EndedKey = "ended"

// PageKey is the token-queue key for listing page n.
func PageKey(n int) string {
	return "page:" + strconv.Itoa(n)
}

// Upstream is a programmable fake of the auction API.
type Upstream struct {
	PageSize int

	mu       sync.Mutex
	auctions []api.Auction
	token    int64
	ended    []string
	items    []api.Item
	queued   map[string][]int64 // tokens served ahead of the current one
	failures map[string][]int   // statuses served ahead of normal replies
	hits     map[string]int

	server *httptest.Server
}

// NewUpstream starts a fake upstream that is closed when the test ends.
func NewUpstream(t testing.TB) *Upstream {
	t.Helper()

	u := &Upstream{
		PageSize: DefaultPageSize,
		queued:   make(map[string][]int64),
		failures: make(map[string][]int),
		hits:     make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(AuctionsPath, u.handleAuctions)
	mux.HandleFunc(EndedPath, u.handleEnded)
	mux.HandleFunc(ItemsPath, u.handleItems)
	u.server = httptest.NewServer(mux)
	t.Cleanup(u.server.Close)

	return u
}

// URL is the base URL to hand to api.NewClient.
func (u *Upstream) URL() string {
	return u.server.URL
}

// Client returns an API client for the fake with fast retries.
func (u *Upstream) Client(opts ...api.ClientOption) *api.Client {
	opts = append([]api.ClientOption{api.WithRetries(1, time.Millisecond)}, opts...)
	return api.NewClient(u.URL(), "", opts...)
}

// SetAuctions replaces the listing and its token.
func (u *Upstream) SetAuctions(token int64, auctions []api.Auction) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.token = token
	u.auctions = append([]api.Auction(nil), auctions...)
}

// SetEnded replaces the ended feed.
func (u *Upstream) SetEnded(ids ...string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ended = append([]string(nil), ids...)
}

// SetItems replaces the items resource.
func (u *Upstream) SetItems(items ...api.Item) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.items = append([]api.Item(nil), items...)
}

// QueueTokens makes the next reads of key carry the given tokens, in
// order, before falling back to the current token.
func (u *Upstream) QueueTokens(key string, tokens ...int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.queued[key] = append(u.queued[key], tokens...)
}

// Fail makes the next reads of path answer with the given statuses.
func (u *Upstream) Fail(path string, statuses ...int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failures[path] = append(u.failures[path], statuses...)
}

// Hits returns how many requests path received.
func (u *Upstream) Hits(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

// TotalPages is the page count of the current listing.
func (u *Upstream) TotalPages() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.totalPagesLocked()
}

func (u *Upstream) totalPagesLocked() int {
	if len(u.auctions) == 0 {
		return 1
	}
	return (len(u.auctions) + u.PageSize - 1) / u.PageSize
}

// begin records a hit and returns a queued failure status, if any.
func (u *Upstream) begin(path string) int {
	u.hits[path]++
	if q := u.failures[path]; len(q) > 0 {
		u.failures[path] = q[1:]
		return q[0]
	}
	return 0
}

func (u *Upstream) tokenLocked(key string) int64 {
	if q := u.queued[key]; len(q) > 0 {
		u.queued[key] = q[1:]
		return q[0]
	}
	return u.token
}

func (u *Upstream) handleAuctions(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if status := u.begin(AuctionsPath); status != 0 {
		http.Error(w, `{"success":false}`, status)
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	total := u.totalPagesLocked()
	if err != nil || page < 0 || page >= total {
		http.Error(w, `{"success":false,"cause":"Page not found"}`, http.StatusNotFound)
		return
	}

	lo := page * u.PageSize
	hi := min(lo+u.PageSize, len(u.auctions))
	resp := api.AuctionsPage{
		Success:       true,
		Page:          page,
		TotalPages:    total,
		TotalAuctions: len(u.auctions),
		LastUpdated:   u.tokenLocked(PageKey(page)),
		Auctions:      u.auctions[lo:hi],
	}
	writeJSON(w, resp)
}

func (u *Upstream) handleEnded(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if status := u.begin(EndedPath); status != 0 {
		http.Error(w, `{"success":false}`, status)
		return
	}

	resp := api.EndedAuctions{Success: true, LastUpdated: u.tokenLocked(EndedKey)}
	for _, id := range u.ended {
		resp.Auctions = append(resp.Auctions, api.EndedAuction{AuctionID: id})
	}
	writeJSON(w, resp)
}

func (u *Upstream) handleItems(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if status := u.begin(ItemsPath); status != 0 {
		http.Error(w, `{"success":false}`, status)
		return
	}
	writeJSON(w, api.ItemsResponse{Success: true, LastUpdated: u.token, Items: u.items})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Auction builds a listing entry for an item with no extra attributes.
func Auction(auctionID, itemID string, bin bool, price int64) api.Auction {
	return api.Auction{
		UUID:        auctionID,
		Auctioneer:  "seller-" + auctionID,
		ItemName:    itemID,
		Tier:        "COMMON",
		ItemBytes:   ItemBytes(itemID, 1, nil),
		Bin:         bin,
		StartingBid: price,
		Start:       1700000000000,
		End:         1700003600000,
	}
}

// Auctions builds n bin listings with ids prefix-0..prefix-(n-1) spread
// over a handful of items.
func Auctions(prefix string, n int) []api.Auction {
	out := make([]api.Auction, n)
	for i := range out {
		out[i] = Auction(fmt.Sprintf("%s-%d", prefix, i), fmt.Sprintf("ITEM_%d", i%7), true, int64(100+i))
	}
	return out
}

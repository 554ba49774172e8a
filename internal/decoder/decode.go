package decoder

import (
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/rickgao/auction-mirror/internal/api"
	"github.com/rickgao/auction-mirror/internal/model"
	"github.com/rickgao/auction-mirror/internal/nbt"
)

// Item is the decoded content of an item payload.
type Item struct {
	ID         string
	Count      int
	Attributes model.Value // Always a compound
}

// ItemLookup resolves item metadata. It may be nil.
type ItemLookup interface {
	Lookup(itemID string) (model.ItemInfo, bool)
}

// DecodeItemBytes decodes a base64 tag-tree payload.
func DecodeItemBytes(b64 string) (Item, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Item{}, fmt.Errorf("%w: %v", ErrBadBase64, err)
	}

	_, root, err := nbt.Decode(raw)
	if err != nil {
		return Item{}, err
	}
	rootC, _ := root.Compound()

	slots, ok := rootC["i"].List()
	if !ok || len(slots.Items) == 0 {
		return Item{}, ErrNoItem
	}
	first, ok := slots.Items[0].Compound()
	if !ok {
		return Item{}, ErrNoItem
	}

	count, ok := first["Count"].Int64()
	if !ok {
		return Item{}, ErrMissingCount
	}
	if count < 1 {
		return Item{}, fmt.Errorf("%w: %d", ErrBadCount, count)
	}

	tag, _ := first["tag"].Compound()
	extra, ok := tag["ExtraAttributes"].Compound()
	if !ok {
		return Item{}, ErrMissingAttributes
	}

	id, ok := extra["id"].Str()
	if !ok || id == "" {
		return Item{}, ErrMissingID
	}

	id, attrs := rewriteItemID(id, convertCompound(extra))
	return Item{ID: id, Count: int(count), Attributes: attrs}, nil
}

// Decode converts one upstream entry into an AuctionRecord.
func Decode(entry api.Auction, items ItemLookup) (model.AuctionRecord, error) {
	item, err := DecodeItemBytes(entry.ItemBytes)
	if err != nil {
		return model.AuctionRecord{}, &DecodeError{AuctionID: entry.UUID, Err: err}
	}

	name, category := entry.ItemName, entry.Category
	if items != nil {
		if info, ok := items.Lookup(item.ID); ok {
			if name == "" {
				name = info.Name
			}
			if category == "" {
				category = info.Category
			}
		}
	}

	return model.AuctionRecord{
		AuctionID:   entry.UUID,
		ItemID:      item.ID,
		Name:        name,
		Tier:        entry.Tier,
		Category:    category,
		Seller:      entry.Auctioneer,
		Count:       item.Count,
		Attributes:  item.Attributes,
		Bin:         entry.Bin,
		StartingBid: entry.StartingBid,
		HighestBid:  entry.HighestBidAmount,
		Price:       model.ListingPrice(entry.Bin, entry.StartingBid, entry.HighestBidAmount),
		Start:       api.MillisToTime(entry.Start),
		End:         api.MillisToTime(entry.End),
	}, nil
}

// DecodeBatch decodes entries in order. Failing entries are logged and
// skipped; their errors are returned alongside the decoded records.
func DecodeBatch(entries []api.Auction, items ItemLookup, logger *slog.Logger) ([]model.AuctionRecord, []error) {
	if logger == nil {
		logger = slog.Default()
	}

	records := make([]model.AuctionRecord, 0, len(entries))
	var failures []error
	for _, entry := range entries {
		rec, err := Decode(entry, items)
		if err != nil {
			logger.Warn("skipping undecodable auction",
				"auction_id", entry.UUID,
				"error", err,
			)
			failures = append(failures, err)
			continue
		}
		records = append(records, rec)
	}
	return records, failures
}

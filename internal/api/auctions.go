package api

import (
	"context"
	"net/url"
	"strconv"
)

const (
	auctionsPath = "/skyblock/auctions"
	endedPath    = "/skyblock/auctions_ended"
	itemsPath    = "/resources/skyblock/items"
)

// GetAuctionsPage fetches one page of active listings.
func (c *Client) GetAuctionsPage(ctx context.Context, page int) (*AuctionsPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))

	var resp AuctionsPage
	if err := c.get(ctx, auctionsPath, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetEndedAuctions fetches the feed of auctions ended in the last minute.
func (c *Client) GetEndedAuctions(ctx context.Context) (*EndedAuctions, error) {
	var resp EndedAuctions
	if err := c.get(ctx, endedPath, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetItems fetches the static items resource.
func (c *Client) GetItems(ctx context.Context) (*ItemsResponse, error) {
	var resp ItemsResponse
	if err := c.get(ctx, itemsPath, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

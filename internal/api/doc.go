// Package api provides the client for the upstream auction-house REST API.
//
// Endpoints (relative to the configured base URL, default
// https://api.hypixel.net/v2):
//   - GET /skyblock/auctions?page=N     paginated active listings
//   - GET /skyblock/auctions_ended      auctions ended in the last minute
//   - GET /resources/skyblock/items     static item metadata
//
// Listing pages and the ended feed carry a lastUpdated freshness token
// (epoch milliseconds). The client returns it verbatim; consistency checks
// live in package scrape.
package api

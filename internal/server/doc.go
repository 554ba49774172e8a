// Package server exposes the read-only query API over the published index.
//
// Endpoints:
//
//	GET /health                        instance status and index stats
//	GET /items                         items with live auctions
//	GET /items/{itemID}/auctions       live auctions, ?bin=true|false
//	GET /items/{itemID}/attributes     attribute catalog for the item's category
//	GET /items/{itemID}/stats          price statistics, ?bin=true|false
//	GET /metrics                       Prometheus metrics (when configured)
//	GET /ws/cycles                     cycle summary stream (when configured)
//
// {itemID} accepts an item id or a display name. Unknown items yield
// empty results rather than errors.
package server

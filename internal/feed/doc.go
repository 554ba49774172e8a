// Package feed pushes cycle summaries to WebSocket subscribers.
//
// The Hub is the server side: it upgrades HTTP requests, keeps a bounded
// queue per subscriber and drops the oldest queued summary when a slow
// subscriber falls behind, so Notify never blocks the sync loop. The
// Subscription is the client side used by `mirror watch`.
package feed

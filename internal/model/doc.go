// Package model defines shared data types used across the auction mirror.
//
// Conventions:
//   - Prices: integer coins as reported upstream
//   - Timestamps: time.Time, converted from upstream epoch milliseconds
//   - IDs: opaque strings for auctions, upper snake case for item ids
//   - Item attributes: Value trees (scalar, list, compound)
package model

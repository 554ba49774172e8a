// Package catalog holds the data derived alongside the auction index: the
// attribute catalog (every value ever observed per attribute, per item
// category) and the item table loaded from the static items resource.
//
// Both are owned by an index snapshot. Attributes supports copy-on-write
// editing so a working copy can extend the catalog without touching the
// published one.
package catalog

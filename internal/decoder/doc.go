// Package decoder turns upstream listing entries into AuctionRecords.
//
// Each entry carries a base64 tag-tree payload. The payload's first slot
// (i[0]) supplies the stack Count and the tag.ExtraAttributes compound, whose
// id names the item. ExtraAttributes is converted to a model.Value with noise
// keys stripped, pet metadata hoisted, gem slots flattened, and pet and rune
// item ids specialized.
package decoder

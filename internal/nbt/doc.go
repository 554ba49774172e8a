// Package nbt reads and writes the binary tag-tree format the upstream
// platform uses to serialize in-game items.
//
// A tag tree is a big-endian, self-describing structure of named tags:
// scalars (byte, short, int, long, float, double, string), typed arrays,
// homogeneous lists and compounds. Item payloads usually arrive gzip framed;
// Decode detects the gzip magic and handles both forms.
package nbt

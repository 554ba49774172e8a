package testutil

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/rickgao/auction-mirror/internal/nbt"
)

// ItemBytes builds a gzip framed, base64 encoded item payload holding one
// item with the given id, count and extra attributes.
func ItemBytes(id string, count int, extra nbt.Compound) string {
	attrs := nbt.Compound{"id": nbt.String(id)}
	for k, v := range extra {
		attrs[k] = v
	}
	return EncodeTree(nbt.NewCompound(nbt.Compound{
		"i": nbt.NewList(nbt.KindCompound, nbt.NewCompound(nbt.Compound{
			"id":    nbt.Short(1),
			"Count": nbt.Byte(int8(count)),
			"tag": nbt.NewCompound(nbt.Compound{
				"ExtraAttributes": nbt.NewCompound(attrs),
			}),
		})),
	}))
}

// EncodeTree gzip-encodes and base64-encodes an arbitrary tag tree.
func EncodeTree(root nbt.Tag) string {
	var buf bytes.Buffer
	if err := nbt.EncodeGzip(&buf, "", root); err != nil {
		panic(fmt.Sprintf("testutil: encode tree: %v", err))
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

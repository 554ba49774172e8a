package catalog

import (
	"sort"

	"github.com/rickgao/auction-mirror/internal/model"
)

// Attributes maps a catalog key (an item category, or the item id when the
// item has none) to the root Node of its observed attributes.
//
// An Attributes produced by Clone shares every node with its source until a
// key is merged into, at which point that key's tree is copied. The source
// is never modified.
type Attributes struct {
	roots map[string]*Node
	owned map[string]bool
}

// NewAttributes returns an empty catalog.
func NewAttributes() *Attributes {
	return &Attributes{
		roots: make(map[string]*Node),
		owned: make(map[string]bool),
	}
}

// Merge folds a compound of attributes into the catalog under key.
func (a *Attributes) Merge(key string, attrs model.Value) {
	if attrs.Kind() != model.KindCompound || attrs.Len() == 0 {
		return
	}
	root, ok := a.roots[key]
	switch {
	case !ok:
		root = newNode()
		a.roots[key] = root
		a.owned[key] = true
	case !a.owned[key]:
		root = root.Clone()
		a.roots[key] = root
		a.owned[key] = true
	}
	root.merge(attrs)
}

// Lookup returns the root node for key, or nil. The node must not be
// modified.
func (a *Attributes) Lookup(key string) *Node {
	return a.roots[key]
}

// Keys returns every catalog key in sorted order.
func (a *Attributes) Keys() []string {
	keys := make([]string, 0, len(a.roots))
	for k := range a.roots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len is the number of catalog keys.
func (a *Attributes) Len() int {
	return len(a.roots)
}

// Clone returns a copy-on-write view of a.
func (a *Attributes) Clone() *Attributes {
	c := &Attributes{
		roots: make(map[string]*Node, len(a.roots)),
		owned: make(map[string]bool),
	}
	for k, n := range a.roots {
		c.roots[k] = n
	}
	return c
}

// Export returns the catalog as a plain map, for dumps.
func (a *Attributes) Export() map[string]*Node {
	out := make(map[string]*Node, len(a.roots))
	for k, n := range a.roots {
		out[k] = n
	}
	return out
}

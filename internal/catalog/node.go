package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/rickgao/auction-mirror/internal/model"
)

// Node is one level of the attribute catalog. Scalars observed at this
// position collect in the value set; compound members recurse into
// children. A position seen both as a scalar and as a compound keeps both.
type Node struct {
	values   map[any]struct{}
	children map[string]*Node
}

func newNode() *Node {
	return &Node{}
}

// merge folds v into the node.
func (n *Node) merge(v model.Value) {
	switch v.Kind() {
	case model.KindScalar:
		s, _ := v.Scalar()
		n.add(s)
	case model.KindList:
		for _, item := range v.Items() {
			n.merge(item)
		}
	case model.KindCompound:
		for k, f := range v.Fields() {
			if f.IsNull() {
				continue
			}
			child, ok := n.children[k]
			if !ok {
				if n.children == nil {
					n.children = make(map[string]*Node)
				}
				child = newNode()
				n.children[k] = child
			}
			child.merge(f)
		}
	}
}

func (n *Node) add(s any) {
	if f, ok := s.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		s = strconv.FormatFloat(f, 'g', -1, 64)
	}
	if n.values == nil {
		n.values = make(map[any]struct{})
	}
	n.values[s] = struct{}{}
}

// Has reports whether scalar s was observed at this position.
func (n *Node) Has(s any) bool {
	if n == nil {
		return false
	}
	_, ok := n.values[s]
	return ok
}

// Values returns the observed scalars: strings first, then numbers, each
// group in ascending order.
func (n *Node) Values() []any {
	if n == nil {
		return nil
	}
	out := make([]any, 0, len(n.values))
	for v := range n.values {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return lessScalar(out[i], out[j]) })
	return out
}

// Child returns the named child, or nil.
func (n *Node) Child(key string) *Node {
	if n == nil {
		return nil
	}
	return n.children[key]
}

// Keys returns the child names in sorted order.
func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Empty reports whether nothing was observed.
func (n *Node) Empty() bool {
	return n == nil || (len(n.values) == 0 && len(n.children) == 0)
}

// Clone returns a deep copy.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{}
	if n.values != nil {
		c.values = make(map[any]struct{}, len(n.values))
		for v := range n.values {
			c.values[v] = struct{}{}
		}
	}
	if n.children != nil {
		c.children = make(map[string]*Node, len(n.children))
		for k, child := range n.children {
			c.children[k] = child.Clone()
		}
	}
	return c
}

// MarshalJSON renders a value-only node as an array and a node with
// children as an object. Values of a mixed node go under "_values".
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	if len(n.children) == 0 {
		return json.Marshal(n.Values())
	}
	obj := make(map[string]any, len(n.children)+1)
	for k, child := range n.children {
		obj[k] = child
	}
	if len(n.values) > 0 {
		obj["_values"] = n.Values()
	}
	return json.Marshal(obj)
}

func lessScalar(a, b any) bool {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra < rb
	}
	switch x := a.(type) {
	case string:
		return x < b.(string)
	case int64:
		if y, ok := b.(int64); ok {
			return x < y
		}
		return float64(x) < b.(float64)
	case float64:
		if y, ok := b.(float64); ok {
			return x < y
		}
		return x < float64(b.(int64))
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func rank(v any) int {
	switch v.(type) {
	case string:
		return 0
	case int64, float64:
		return 1
	}
	return 2
}

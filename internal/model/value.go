package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// ValueKind discriminates the variants of Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindScalar
	KindList
	KindCompound
)

func (k ValueKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindCompound:
		return "compound"
	}
	return "null"
}

// Value is a decoded attribute: a scalar (string, int64 or float64), a
// list of values, or a compound of named values. The zero Value is null.
//
// Values are treated as immutable once built; Fields and Items expose the
// underlying storage and must not be modified by callers.
type Value struct {
	kind     ValueKind
	scalar   any
	list     []Value
	compound map[string]Value
}

func String(s string) Value { return Value{kind: KindScalar, scalar: s} }

func Int(i int64) Value { return Value{kind: KindScalar, scalar: i} }

func Float(f float64) Value { return Value{kind: KindScalar, scalar: f} }

// List builds a list value.
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, list: items}
}

// Compound builds a compound value. The map is retained, not copied.
func Compound(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindCompound, compound: fields}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Scalar returns the scalar payload: string, int64 or float64.
func (v Value) Scalar() (any, bool) {
	return v.scalar, v.kind == KindScalar
}

// Str returns the payload of a string scalar.
func (v Value) Str() (string, bool) {
	s, ok := v.scalar.(string)
	return s, ok
}

// Int returns the payload of an integer scalar.
func (v Value) Int() (int64, bool) {
	i, ok := v.scalar.(int64)
	return i, ok
}

func (v Value) Items() []Value { return v.list }

func (v Value) Fields() map[string]Value { return v.compound }

// Field looks up a compound member.
func (v Value) Field(key string) (Value, bool) {
	f, ok := v.compound[key]
	return f, ok
}

// Keys returns a compound's member names in sorted order.
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.compound))
	for k := range v.compound {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len is the number of list items or compound members.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindCompound:
		return len(v.compound)
	}
	return 0
}

// With returns a copy of a compound with key set to f.
func (v Value) With(key string, f Value) Value {
	out := make(map[string]Value, len(v.compound)+1)
	for k, x := range v.compound {
		out[k] = x
	}
	out[key] = f
	return Compound(out)
}

// Without returns a copy of a compound without the given keys.
func (v Value) Without(keys ...string) Value {
	out := make(map[string]Value, len(v.compound))
	for k, x := range v.compound {
		out[k] = x
	}
	for _, k := range keys {
		delete(out, k)
	}
	return Compound(out)
}

// Flatten returns every scalar reachable from v, depth first.
func (v Value) Flatten() []any {
	var out []any
	v.flatten(&out)
	return out
}

func (v Value) flatten(out *[]any) {
	switch v.kind {
	case KindScalar:
		*out = append(*out, v.scalar)
	case KindList:
		for _, item := range v.list {
			item.flatten(out)
		}
	case KindCompound:
		for _, k := range v.Keys() {
			v.compound[k].flatten(out)
		}
	}
}

// Equal reports deep equality.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindScalar:
		return v.scalar == o.scalar
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindCompound:
		if len(v.compound) != len(o.compound) {
			return false
		}
		for k, x := range v.compound {
			y, ok := o.compound[k]
			if !ok || !x.Equal(y) {
				return false
			}
		}
		return true
	}
	return true
}

// String renders v as compact JSON.
func (v Value) String() string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<%s>", v.kind)
	}
	return string(b)
}

// MarshalJSON encodes scalars as JSON scalars, lists as arrays and
// compounds as objects. NaN and infinite floats encode as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindScalar:
		if f, ok := v.scalar.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			return json.Marshal(strconv.FormatFloat(f, 'g', -1, 64))
		}
		return json.Marshal(v.scalar)
	case KindList:
		return json.Marshal(v.list)
	case KindCompound:
		return json.Marshal(v.compound)
	}
	return []byte("null"), nil
}

// UnmarshalJSON is the inverse of MarshalJSON. Integral numbers decode as
// int64, other numbers as float64.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = FromJSON(raw)
	return nil
}

// FromJSON converts the output of encoding/json (decoded with or without
// UseNumber) into a Value. Booleans become 0/1 integers.
func FromJSON(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Value{}
	case string:
		return String(x)
	case bool:
		if x {
			return Int(1)
		}
		return Int(0)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i)
		}
		f, _ := x.Float64()
		return Float(f)
	case float64:
		if x == float64(int64(x)) {
			return Int(int64(x))
		}
		return Float(x)
	case []any:
		items := make([]Value, 0, len(x))
		for _, item := range x {
			items = append(items, FromJSON(item))
		}
		return List(items...)
	case map[string]any:
		fields := make(map[string]Value, len(x))
		for k, item := range x {
			fields[k] = FromJSON(item)
		}
		return Compound(fields)
	}
	return String(fmt.Sprint(raw))
}

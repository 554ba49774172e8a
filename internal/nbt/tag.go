package nbt

import (
	"fmt"
	"sort"
)

// Kind identifies the type of a tag.
type Kind byte

// Tag kinds as encoded on the wire.
const (
	KindEnd Kind = iota
	KindByte
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindByteArray
	KindString
	KindList
	KindCompound
	KindIntArray
	KindLongArray
)

var kindNames = [...]string{
	"End", "Byte", "Short", "Int", "Long", "Float", "Double",
	"ByteArray", "String", "List", "Compound", "IntArray", "LongArray",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}

func (k Kind) valid() bool {
	return k <= KindLongArray
}

// Tag is a single node of a tag tree.
//
// Value holds int8, int16, int32, int64, float32, float64, []byte, string,
// List, Compound, []int32 or []int64 depending on Kind.
type Tag struct {
	Kind  Kind
	Value any
}

// List is the payload of a list tag. All items share the Elem kind.
type List struct {
	Elem  Kind
	Items []Tag
}

// Compound is the payload of a compound tag.
type Compound map[string]Tag

// Keys returns the compound's keys in sorted order.
func (c Compound) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Constructors for scalar and array tags.
func Byte(v int8) Tag            { return Tag{Kind: KindByte, Value: v} }
func Short(v int16) Tag          { return Tag{Kind: KindShort, Value: v} }
func Int(v int32) Tag            { return Tag{Kind: KindInt, Value: v} }
func Long(v int64) Tag           { return Tag{Kind: KindLong, Value: v} }
func Float(v float32) Tag        { return Tag{Kind: KindFloat, Value: v} }
func Double(v float64) Tag       { return Tag{Kind: KindDouble, Value: v} }
func String(v string) Tag        { return Tag{Kind: KindString, Value: v} }
func ByteArray(v []byte) Tag     { return Tag{Kind: KindByteArray, Value: v} }
func IntArray(v []int32) Tag     { return Tag{Kind: KindIntArray, Value: v} }
func LongArray(v []int64) Tag    { return Tag{Kind: KindLongArray, Value: v} }
func NewCompound(c Compound) Tag { return Tag{Kind: KindCompound, Value: c} }

// NewList builds a list tag. An empty list may use KindEnd as its element kind.
func NewList(elem Kind, items ...Tag) Tag {
	return Tag{Kind: KindList, Value: List{Elem: elem, Items: items}}
}

// Compound returns the tag's compound payload.
func (t Tag) Compound() (Compound, bool) {
	c, ok := t.Value.(Compound)
	return c, ok && t.Kind == KindCompound
}

// List returns the tag's list payload.
func (t Tag) List() (List, bool) {
	l, ok := t.Value.(List)
	return l, ok && t.Kind == KindList
}

// Str returns the tag's string payload.
func (t Tag) Str() (string, bool) {
	s, ok := t.Value.(string)
	return s, ok && t.Kind == KindString
}

// Int64 widens any integral scalar payload.
func (t Tag) Int64() (int64, bool) {
	switch v := t.Value.(type) {
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

// Float64 widens a float or double payload.
func (t Tag) Float64() (float64, bool) {
	switch v := t.Value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

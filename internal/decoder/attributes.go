package decoder

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rickgao/auction-mirror/internal/model"
	"github.com/rickgao/auction-mirror/internal/nbt"
)

// skipped lists attribute keys dropped at every depth.
var skipped = map[string]struct{}{
	"active":            {},
	"hideInfo":          {},
	"hideRightClick":    {},
	"noMove":            {},
	"timestamp":         {},
	"id":                {},
	"uuid":              {},
	"bossId":            {},
	"spawnedFor":        {},
	"originTag":         {},
	"fungi_cutter_mode": {},
	"effects":           {},
	"necromancer_souls": {},
	"uniqueId":          {},
	"recipient_name":    {},
	"recipient_id":      {},
}

// Skipped reports whether key is stripped from decoded attributes.
func Skipped(key string) bool {
	_, ok := skipped[key]
	return ok
}

const (
	petInfoKey       = "petInfo"
	gemsKey          = "gems"
	unlockedSlotsKey = "unlocked_slots"
	gemSuffix        = "_gem"
)

// convertTag converts a tag subtree into a Value.
func convertTag(t nbt.Tag) model.Value {
	switch t.Kind {
	case nbt.KindCompound:
		c, _ := t.Compound()
		return convertCompound(c)
	case nbt.KindList:
		l, _ := t.List()
		items := make([]model.Value, 0, len(l.Items))
		for _, it := range l.Items {
			items = append(items, convertTag(it))
		}
		return model.List(items...)
	case nbt.KindString:
		s, _ := t.Str()
		return model.String(s)
	case nbt.KindFloat, nbt.KindDouble:
		f, _ := t.Float64()
		return floatValue(f)
	case nbt.KindByteArray:
		b, _ := t.Value.([]byte)
		items := make([]model.Value, len(b))
		for i, x := range b {
			items[i] = model.Int(int64(int8(x)))
		}
		return model.List(items...)
	case nbt.KindIntArray:
		a, _ := t.Value.([]int32)
		items := make([]model.Value, len(a))
		for i, x := range a {
			items[i] = model.Int(int64(x))
		}
		return model.List(items...)
	case nbt.KindLongArray:
		a, _ := t.Value.([]int64)
		items := make([]model.Value, len(a))
		for i, x := range a {
			items[i] = model.Int(x)
		}
		return model.List(items...)
	}
	if i, ok := t.Int64(); ok {
		return model.Int(i)
	}
	return model.Value{}
}

func convertCompound(c nbt.Compound) model.Value {
	out := make(map[string]model.Value, len(c))
	var hoisted model.Value
	for k, v := range c {
		if Skipped(k) {
			continue
		}
		switch k {
		case petInfoKey:
			if s, ok := v.Str(); ok {
				if pet, ok := parsePetInfo(s); ok {
					hoisted = pet
					continue
				}
			}
		case gemsKey:
			if gems, ok := v.Compound(); ok {
				out[k] = flattenGems(gems)
				continue
			}
		}
		out[k] = convertTag(v)
	}
	for k, v := range hoisted.Fields() {
		out[k] = v
	}
	return model.Compound(out)
}

// parsePetInfo decodes the JSON document pets carry as a string attribute.
func parsePetInfo(s string) (model.Value, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return model.Value{}, false
	}
	return stripValue(model.FromJSON(raw)), true
}

// stripValue applies the skip list to an already converted value.
func stripValue(v model.Value) model.Value {
	switch v.Kind() {
	case model.KindCompound:
		out := make(map[string]model.Value, v.Len())
		for k, f := range v.Fields() {
			if Skipped(k) || f.IsNull() {
				continue
			}
			out[k] = stripValue(f)
		}
		return model.Compound(out)
	case model.KindList:
		items := make([]model.Value, 0, v.Len())
		for _, it := range v.Items() {
			items = append(items, stripValue(it))
		}
		return model.List(items...)
	}
	return v
}

// flattenGems collapses gem slot compounds to their quality. A sibling
// "<SLOT>_gem" key turns the slot into {gem, quality}.
func flattenGems(gems nbt.Compound) model.Value {
	flat := make(map[string]model.Value, len(gems))
	specials := make(map[string]model.Value)

	for k, v := range gems {
		var val model.Value
		if c, ok := v.Compound(); ok && k != unlockedSlotsKey {
			if q, ok := c["quality"]; ok {
				val = convertTag(q)
			} else {
				val = convertCompound(c)
			}
		} else {
			val = convertTag(v)
		}

		if slot, ok := strings.CutSuffix(k, gemSuffix); ok {
			specials[slot] = val
			continue
		}
		if Skipped(k) {
			continue
		}
		flat[k] = val
	}

	slots := make([]string, 0, len(specials))
	for slot := range specials {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	for _, slot := range slots {
		pair := map[string]model.Value{"gem": specials[slot]}
		if q, ok := flat[slot]; ok {
			pair["quality"] = q
		}
		flat[slot] = model.Compound(pair)
	}
	return model.Compound(flat)
}

// rewriteItemID specializes generic pet and rune ids using their attributes.
func rewriteItemID(itemID string, attrs model.Value) (string, model.Value) {
	switch {
	case itemID == "PET":
		t, ok := attrs.Field("type")
		if s, isStr := t.Str(); ok && isStr && s != "" {
			return s + "_PET", attrs.Without("type")
		}
	case strings.Contains(itemID, "RUNE"):
		runes, ok := attrs.Field("runes")
		if !ok || runes.Kind() != model.KindCompound || runes.Len() == 0 {
			break
		}
		kind := runes.Keys()[0]
		level, _ := runes.Field(kind)
		return kind + "_RUNE", attrs.Without("runes").With("level", level)
	}
	return itemID, attrs
}

// floatValue maps NaN and the infinities to their string spelling so that
// every observation of them compares equal and stays JSON encodable.
func floatValue(f float64) model.Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return model.String(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return model.Float(f)
}

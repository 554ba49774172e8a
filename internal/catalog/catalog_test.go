package catalog

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/auction-mirror/internal/model"
)

func attrs(fields map[string]model.Value) model.Value {
	return model.Compound(fields)
}

func TestMergeScalarsAndCompounds(t *testing.T) {
	a := NewAttributes()
	a.Merge("SWORD", attrs(map[string]model.Value{
		"modifier":     model.String("heroic"),
		"enchantments": attrs(map[string]model.Value{"sharpness": model.Int(5)}),
	}))
	a.Merge("SWORD", attrs(map[string]model.Value{
		"modifier":     model.String("fabled"),
		"enchantments": attrs(map[string]model.Value{"sharpness": model.Int(6), "smite": model.Int(7)}),
	}))

	root := a.Lookup("SWORD")
	require.NotNil(t, root)
	assert.Equal(t, []string{"enchantments", "modifier"}, root.Keys())
	assert.Equal(t, []any{"fabled", "heroic"}, root.Child("modifier").Values())

	ench := root.Child("enchantments")
	assert.Equal(t, []any{int64(5), int64(6)}, ench.Child("sharpness").Values())
	assert.Equal(t, []any{int64(7)}, ench.Child("smite").Values())
}

func TestMergeListsIntoValueSet(t *testing.T) {
	a := NewAttributes()
	a.Merge("SWORD", attrs(map[string]model.Value{
		"ability_scroll": model.List(model.String("IMPLOSION"), model.String("WITHER_SHIELD")),
	}))
	a.Merge("SWORD", attrs(map[string]model.Value{
		"ability_scroll": model.List(model.String("SHADOW_WARP"), model.String("IMPLOSION")),
	}))

	node := a.Lookup("SWORD").Child("ability_scroll")
	assert.Equal(t, []any{"IMPLOSION", "SHADOW_WARP", "WITHER_SHIELD"}, node.Values())
}

func TestMergeMixedFacets(t *testing.T) {
	a := NewAttributes()
	a.Merge("K", attrs(map[string]model.Value{"x": model.Int(1)}))
	a.Merge("K", attrs(map[string]model.Value{"x": attrs(map[string]model.Value{"y": model.String("z")})}))

	x := a.Lookup("K").Child("x")
	assert.True(t, x.Has(int64(1)))
	assert.Equal(t, []string{"y"}, x.Keys())

	b, err := json.Marshal(x)
	require.NoError(t, err)
	assert.JSONEq(t, `{"y":["z"],"_values":[1]}`, string(b))
}

func TestMergeIgnoresEmpty(t *testing.T) {
	a := NewAttributes()
	a.Merge("K", attrs(nil))
	a.Merge("K", model.String("not a compound"))
	assert.Zero(t, a.Len())
	assert.Nil(t, a.Lookup("K"))
	assert.True(t, a.Lookup("K").Empty())
}

func TestCloneIsCopyOnWrite(t *testing.T) {
	base := NewAttributes()
	base.Merge("A", attrs(map[string]model.Value{"m": model.String("one")}))
	base.Merge("B", attrs(map[string]model.Value{"m": model.String("b")}))

	edit := base.Clone()
	edit.Merge("A", attrs(map[string]model.Value{"m": model.String("two")}))
	edit.Merge("C", attrs(map[string]model.Value{"m": model.String("c")}))

	assert.Equal(t, []any{"one"}, base.Lookup("A").Child("m").Values())
	assert.Nil(t, base.Lookup("C"))
	assert.Equal(t, []any{"one", "two"}, edit.Lookup("A").Child("m").Values())
	assert.Same(t, base.Lookup("B"), edit.Lookup("B"), "untouched keys are shared")
	assert.Equal(t, []string{"A", "B", "C"}, edit.Keys())
}

func TestNodeValuesOrdering(t *testing.T) {
	n := newNode()
	n.merge(model.List(model.Int(3), model.String("b"), model.Float(1.5), model.String("a"), model.Int(1)))
	assert.Equal(t, []any{"a", "b", int64(1), 1.5, int64(3)}, n.Values())
}

func TestNodeCloneIsDeep(t *testing.T) {
	n := newNode()
	n.merge(attrs(map[string]model.Value{"k": model.Int(1)}))
	c := n.Clone()
	c.merge(attrs(map[string]model.Value{"k": model.Int(2)}))

	assert.Equal(t, []any{int64(1)}, n.Child("k").Values())
	assert.Equal(t, []any{int64(1), int64(2)}, c.Child("k").Values())
}

func TestItemTable(t *testing.T) {
	table := NewItemTable([]model.ItemInfo{
		{ID: "HYPERION", Name: "Hyperion", Category: "SWORD", Tier: "LEGENDARY"},
		{ID: "ENCHANTED_BOOK", Name: "Enchanted Book"},
	})

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "SWORD", table.Category("HYPERION"))
	assert.Equal(t, "ENCHANTED_BOOK", table.Category("ENCHANTED_BOOK"), "uncategorized falls back to id")
	assert.Equal(t, "WOLF_PET", table.Category("WOLF_PET"))

	assert.Equal(t, "Hyperion", table.DisplayName("HYPERION"))
	assert.Equal(t, "Wolf Pet", table.DisplayName("WOLF_PET"))

	assert.Equal(t, "HYPERION", table.Resolve("HYPERION"))
	assert.Equal(t, "ENCHANTED_BOOK", table.Resolve("enchanted book"))
	assert.Equal(t, "HYPERION_BLADE", table.Resolve(" Hyperion  Blade "))

	var nilTable *ItemTable
	assert.Equal(t, "X", nilTable.Category("X"))
	assert.Equal(t, "FROST_RUNE", nilTable.Resolve("frost rune"))
	assert.Zero(t, nilTable.Len())
}

func TestMergeNonFiniteFloatsCollapse(t *testing.T) {
	a := NewAttributes()
	for i := 0; i < 5; i++ {
		a.Merge("SWORD", attrs(map[string]model.Value{
			"stat": model.Float(math.NaN()),
			"cap":  model.Float(math.Inf(1)),
		}))
	}

	root := a.Lookup("SWORD")
	require.NotNil(t, root)
	assert.Equal(t, []any{"NaN"}, root.Child("stat").Values())
	assert.True(t, root.Child("cap").Has("+Inf"))
	assert.Len(t, root.Child("cap").Values(), 1)

	b, err := json.Marshal(root)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cap":["+Inf"],"stat":["NaN"]}`, string(b))
}

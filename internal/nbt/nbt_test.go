package nbt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() Tag {
	return NewCompound(Compound{
		"i": NewList(KindCompound, NewCompound(Compound{
			"id":     Short(276),
			"Count":  Byte(1),
			"Damage": Short(0),
			"tag": NewCompound(Compound{
				"ExtraAttributes": NewCompound(Compound{
					"id":         String("HYPERION"),
					"timestamp":  Long(1700000000000),
					"modifier":   String("heroic"),
					"hot_potato": Int(10),
					"ratio":      Double(0.25),
					"speed":      Float(1.5),
					"cookies":    ByteArray([]byte{1, 2, 3}),
					"slots":      IntArray([]int32{4, 5}),
					"big":        LongArray([]int64{1 << 40}),
					"enchantments": NewCompound(Compound{
						"sharpness": Int(5),
					}),
					"empty": NewList(KindEnd),
				}),
			}),
		})),
	})
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, "", sampleTree()))

	name, got, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "", name)
	assert.Equal(t, sampleTree(), got)
}

func TestRoundTrip_Gzip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeGzip(&buf, "root", sampleTree()))
	require.Equal(t, byte(0x1f), buf.Bytes()[0])

	name, got, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "root", name)
	assert.Equal(t, sampleTree(), got)
}

func TestModifiedUTF8(t *testing.T) {
	for _, s := range []string{"plain", "§6Legendary", "nul\x00byte", "emoji 🐺 wolf", "한국"} {
		t.Run(s, func(t *testing.T) {
			root := NewCompound(Compound{"name": String(s)})
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, "", root))

			_, got, err := Decode(buf.Bytes())
			require.NoError(t, err)
			c, ok := got.Compound()
			require.True(t, ok)
			v, ok := c["name"].Str()
			require.True(t, ok)
			assert.Equal(t, s, v)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	var full bytes.Buffer
	require.NoError(t, Encode(&full, "", sampleTree()))

	t.Run("empty", func(t *testing.T) {
		_, _, err := Decode(nil)
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("truncated", func(t *testing.T) {
		data := full.Bytes()[:full.Len()/2]
		_, _, err := Decode(data)
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("root not compound", func(t *testing.T) {
		_, _, err := Decode([]byte{byte(KindString), 0, 0, 0, 1, 'x'})
		assert.ErrorIs(t, err, ErrNotCompound)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, _, err := Decode([]byte{byte(KindCompound), 0, 0, 42, 0, 0})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown tag kind 42")
	})

	t.Run("negative length", func(t *testing.T) {
		data := []byte{byte(KindCompound), 0, 0, byte(KindByteArray), 0, 1, 'a', 0xff, 0xff, 0xff, 0xff, 0}
		_, _, err := Decode(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "negative length")
	})

	t.Run("length beyond input", func(t *testing.T) {
		data := []byte{byte(KindCompound), 0, 0, byte(KindIntArray), 0, 1, 'a', 0x7f, 0xff, 0xff, 0xff, 0}
		_, _, err := Decode(data)
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("bad gzip", func(t *testing.T) {
		_, _, err := Decode([]byte{0x1f, 0x8b, 0x00})
		require.Error(t, err)
	})

	t.Run("too deep", func(t *testing.T) {
		var data []byte
		data = append(data, byte(KindCompound), 0, 0)
		for i := 0; i < MaxDepth+1; i++ {
			data = append(data, byte(KindCompound), 0, 1, 'n')
		}
		_, _, err := Decode(data)
		assert.ErrorIs(t, err, ErrTooDeep)
	})
}

func TestEncode_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Encode(&buf, "", String("x")), ErrNotCompound)

	mixed := NewCompound(Compound{"l": NewList(KindInt, Int(1), String("x"))})
	assert.Error(t, Encode(&buf, "", mixed))
}

func TestTagAccessors(t *testing.T) {
	v, ok := Short(7).Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(7), v)

	_, ok = String("x").Int64()
	assert.False(t, ok)

	f, ok := Float(1.5).Float64()
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)

	_, ok = Int(1).Compound()
	assert.False(t, ok)

	assert.Equal(t, "Compound", KindCompound.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
	assert.Equal(t, []string{"a", "b"}, Compound{"b": Int(1), "a": Int(2)}.Keys())
}

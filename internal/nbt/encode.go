package nbt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf16"

	"github.com/klauspost/compress/gzip"
)

// Encode writes root as a named, uncompressed tag tree.
// Compound keys are written in sorted order so output is deterministic.
func Encode(w io.Writer, name string, root Tag) error {
	if root.Kind != KindCompound {
		return ErrNotCompound
	}
	var buf bytes.Buffer
	e := &encoder{buf: &buf}
	e.byte(byte(KindCompound))
	if err := e.string(name); err != nil {
		return err
	}
	if err := e.payload(root); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// EncodeGzip writes root gzip framed, the form item payloads arrive in.
func EncodeGzip(w io.Writer, name string, root Tag) error {
	zw := gzip.NewWriter(w)
	if err := Encode(zw, name, root); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

type encoder struct {
	buf *bytes.Buffer
}

func (e *encoder) byte(b byte) {
	e.buf.WriteByte(b)
}

func (e *encoder) u16(v uint16) {
	e.buf.Write(binary.BigEndian.AppendUint16(nil, v))
}

func (e *encoder) u32(v uint32) {
	e.buf.Write(binary.BigEndian.AppendUint32(nil, v))
}

func (e *encoder) u64(v uint64) {
	e.buf.Write(binary.BigEndian.AppendUint64(nil, v))
}

func (e *encoder) string(s string) error {
	b := encodeMUTF8(s)
	if len(b) > math.MaxUint16 {
		return fmt.Errorf("nbt: string of %d bytes exceeds limit", len(b))
	}
	e.u16(uint16(len(b)))
	e.buf.Write(b)
	return nil
}

func (e *encoder) payload(t Tag) error {
	switch v := t.Value.(type) {
	case int8:
		e.byte(byte(v))
	case int16:
		e.u16(uint16(v))
	case int32:
		e.u32(uint32(v))
	case int64:
		e.u64(uint64(v))
	case float32:
		e.u32(math.Float32bits(v))
	case float64:
		e.u64(math.Float64bits(v))
	case []byte:
		e.u32(uint32(len(v)))
		e.buf.Write(v)
	case string:
		return e.string(v)
	case []int32:
		e.u32(uint32(len(v)))
		for _, x := range v {
			e.u32(uint32(x))
		}
	case []int64:
		e.u32(uint32(len(v)))
		for _, x := range v {
			e.u64(uint64(x))
		}
	case List:
		e.byte(byte(v.Elem))
		e.u32(uint32(len(v.Items)))
		for i, item := range v.Items {
			if item.Kind != v.Elem {
				return fmt.Errorf("nbt: list[%d] is %s, want %s", i, item.Kind, v.Elem)
			}
			if err := e.payload(item); err != nil {
				return err
			}
		}
	case Compound:
		for _, k := range v.Keys() {
			child := v[k]
			e.byte(byte(child.Kind))
			if err := e.string(k); err != nil {
				return err
			}
			if err := e.payload(child); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
		e.byte(byte(KindEnd))
	default:
		return fmt.Errorf("nbt: cannot encode %T as %s", t.Value, t.Kind)
	}
	return nil
}

func encodeMUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r == 0:
			out = append(out, 0xC0, 0x80)
		case r < 0x80:
			out = append(out, byte(r))
		case r < 0x800:
			out = append(out, 0xC0|byte(r>>6), 0x80|byte(r&0x3F))
		case r < 0x10000:
			out = append(out, 0xE0|byte(r>>12), 0x80|byte(r>>6&0x3F), 0x80|byte(r&0x3F))
		default:
			hi, lo := utf16.EncodeRune(r)
			for _, u := range []rune{hi, lo} {
				out = append(out, 0xE0|byte(u>>12), 0x80|byte(u>>6&0x3F), 0x80|byte(u&0x3F))
			}
		}
	}
	return out
}

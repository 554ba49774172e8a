package nbt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
)

// MaxDepth bounds compound and list nesting.
const MaxDepth = 512

// maxInflated caps the size of a gzip framed payload after decompression.
const maxInflated = 16 << 20

var (
	ErrTruncated   = errors.New("nbt: unexpected end of data")
	ErrTooDeep     = errors.New("nbt: nesting exceeds max depth")
	ErrNotCompound = errors.New("nbt: root tag is not a compound")
	ErrTooLarge    = errors.New("nbt: inflated payload too large")
)

// Decode parses a tag tree. Gzip framed input is inflated first.
// The root tag must be a compound; its name is returned alongside it.
func Decode(data []byte) (string, Tag, error) {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		inflated, err := inflate(data)
		if err != nil {
			return "", Tag{}, err
		}
		data = inflated
	}

	r := &reader{buf: data}
	kind, err := r.kind()
	if err != nil {
		return "", Tag{}, err
	}
	if kind != KindCompound {
		return "", Tag{}, fmt.Errorf("%w: got %s", ErrNotCompound, kind)
	}
	name, err := r.string()
	if err != nil {
		return "", Tag{}, err
	}
	root, err := r.payload(KindCompound)
	if err != nil {
		return "", Tag{}, fmt.Errorf("nbt: root %q: %w", name, err)
	}
	return name, root, nil
}

func inflate(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("nbt: gzip header: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, maxInflated+1))
	if err != nil {
		return nil, fmt.Errorf("nbt: inflate: %w", err)
	}
	if len(out) > maxInflated {
		return nil, ErrTooLarge
	}
	return out, nil
}

type reader struct {
	buf   []byte
	off   int
	depth int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || n > r.remaining() {
		return nil, ErrTruncated
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) kind() (Kind, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	k := Kind(b[0])
	if !k.valid() {
		return 0, fmt.Errorf("nbt: unknown tag kind %d at offset %d", b[0], r.off-1)
	}
	return k, nil
}

func (r *reader) u16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// length reads a signed 32-bit count and checks that at least
// n*unit bytes remain.
func (r *reader) length(unit int) (int, error) {
	v, err := r.u32()
	if err != nil {
		return 0, err
	}
	n := int(int32(v))
	if n < 0 {
		return 0, fmt.Errorf("nbt: negative length %d", n)
	}
	if n > r.remaining()/unit {
		return 0, ErrTruncated
	}
	return n, nil
}

func (r *reader) string() (string, error) {
	n, err := r.u16()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return decodeMUTF8(b), nil
}

func (r *reader) enter() error {
	r.depth++
	if r.depth > MaxDepth {
		return ErrTooDeep
	}
	return nil
}

func (r *reader) payload(k Kind) (Tag, error) {
	switch k {
	case KindByte:
		b, err := r.take(1)
		if err != nil {
			return Tag{}, err
		}
		return Byte(int8(b[0])), nil
	case KindShort:
		v, err := r.u16()
		return Short(int16(v)), err
	case KindInt:
		v, err := r.u32()
		return Int(int32(v)), err
	case KindLong:
		v, err := r.u64()
		return Long(int64(v)), err
	case KindFloat:
		v, err := r.u32()
		return Float(math.Float32frombits(v)), err
	case KindDouble:
		v, err := r.u64()
		return Double(math.Float64frombits(v)), err
	case KindByteArray:
		n, err := r.length(1)
		if err != nil {
			return Tag{}, err
		}
		b, _ := r.take(n)
		return ByteArray(bytes.Clone(b)), nil
	case KindString:
		s, err := r.string()
		return String(s), err
	case KindIntArray:
		n, err := r.length(4)
		if err != nil {
			return Tag{}, err
		}
		out := make([]int32, n)
		for i := range out {
			v, _ := r.u32()
			out[i] = int32(v)
		}
		return IntArray(out), nil
	case KindLongArray:
		n, err := r.length(8)
		if err != nil {
			return Tag{}, err
		}
		out := make([]int64, n)
		for i := range out {
			v, _ := r.u64()
			out[i] = int64(v)
		}
		return LongArray(out), nil
	case KindList:
		return r.list()
	case KindCompound:
		return r.compound()
	}
	return Tag{}, fmt.Errorf("nbt: unexpected %s payload", k)
}

func (r *reader) list() (Tag, error) {
	if err := r.enter(); err != nil {
		return Tag{}, err
	}
	defer func() { r.depth-- }()

	elem, err := r.kind()
	if err != nil {
		return Tag{}, err
	}
	n, err := r.length(1)
	if err != nil {
		return Tag{}, err
	}
	if n > 0 && elem == KindEnd {
		return Tag{}, fmt.Errorf("nbt: list of %d End tags", n)
	}
	if n == 0 {
		return NewList(elem), nil
	}

	items := make([]Tag, 0, n)
	for i := 0; i < n; i++ {
		item, err := r.payload(elem)
		if err != nil {
			return Tag{}, fmt.Errorf("list[%d]: %w", i, err)
		}
		items = append(items, item)
	}
	return NewList(elem, items...), nil
}

func (r *reader) compound() (Tag, error) {
	if err := r.enter(); err != nil {
		return Tag{}, err
	}
	defer func() { r.depth-- }()

	c := make(Compound)
	for {
		k, err := r.kind()
		if err != nil {
			return Tag{}, err
		}
		if k == KindEnd {
			return NewCompound(c), nil
		}
		name, err := r.string()
		if err != nil {
			return Tag{}, err
		}
		v, err := r.payload(k)
		if err != nil {
			return Tag{}, fmt.Errorf("%s: %w", name, err)
		}
		c[name] = v
	}
}

// decodeMUTF8 decodes Java's modified UTF-8: NUL is written as C0 80 and
// supplementary characters as surrogate pairs.
func decodeMUTF8(b []byte) string {
	if utf8.Valid(b) && !bytes.Contains(b, []byte{0xC0, 0x80}) && !bytes.Contains(b, []byte{0xED}) {
		return string(b)
	}

	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b):
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b):
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		case c&0xF8 == 0xF0 && i+3 < len(b):
			r, size := utf8.DecodeRune(b[i:])
			hi, lo := utf16.EncodeRune(r)
			units = append(units, uint16(hi), uint16(lo))
			i += size
		default:
			units = append(units, utf8.RuneError)
			i++
		}
	}
	return string(utf16.Decode(units))
}

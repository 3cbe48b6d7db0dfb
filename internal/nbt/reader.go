package nbt

import (
	"encoding/binary"
	"math"
	"strings"
)

// Reader parses an NBT tree from an in-memory buffer using a single cursor.
// It exposes two entry points: ReadFull, which materializes the whole tree,
// and ReadPath, which walks straight to one subtree and skips the rest of
// the compound without allocating for it.
type Reader struct {
	buf    []byte
	pos    int
	intern map[string]string
}

// NewReader wraps buf for parsing. The Reader keeps buf for its cursor, but
// no returned value aliases it (ByteArray payloads are copied out), so
// callers may reuse or discard buf once they are done with the Reader.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf, intern: make(map[string]string)}
}

// ReadFull parses the entire tree. The root is expected to be a named
// compound tag (id 10); its name and payload are returned as the root Tag.
func (r *Reader) ReadFull() (*Tag, error) {
	tagType, err := r.readU8()
	if err != nil {
		return nil, err
	}
	if tagType != TagCompound {
		return nil, &SchemaError{Path: "<root>", Expected: "compound", Found: tagType}
	}
	name, err := r.readName()
	if err != nil {
		return nil, err
	}
	body, err := r.readCompoundBody()
	if err != nil {
		return nil, err
	}
	if r.pos > len(r.buf) {
		return nil, &TruncatedError{Wanted: r.pos - len(r.buf), Have: len(r.buf)}
	}
	return &Tag{Type: TagCompound, Name: name, Value: body}, nil
}

// ReadPath starts at the root compound and descends through path, skipping
// every sibling tag whose name doesn't match along the way. It returns nil
// (no error) if any element of path is missing, or if a non-final element
// names something other than a compound. List elements carry no name, so a
// path can never be routed through one.
func (r *Reader) ReadPath(path []string) (*Tag, error) {
	rootType, err := r.readU8()
	if err != nil {
		return nil, err
	}
	if rootType != TagCompound {
		return nil, &SchemaError{Path: "<root>", Expected: "compound", Found: rootType}
	}
	if _, err := r.readName(); err != nil {
		return nil, err
	}
	if len(path) == 0 {
		return nil, nil
	}
	return r.descend(path)
}

// descend reads named tags in the current compound body until it finds
// path[0]. On a match: if path has more elements it recurses into the
// matched compound, otherwise it materializes and returns the match.
// Everything that doesn't match is stream-skipped, never materialized.
func (r *Reader) descend(path []string) (*Tag, error) {
	target := path[0]
	rest := path[1:]

	for {
		tagType, err := r.readU8()
		if err != nil {
			return nil, err
		}
		if tagType == TagEnd {
			return nil, nil
		}
		name, err := r.readName()
		if err != nil {
			return nil, err
		}
		if name != target {
			if err := r.skipPayload(tagType); err != nil {
				return nil, err
			}
			continue
		}
		if len(rest) == 0 {
			val, err := r.readPayload(tagType)
			if err != nil {
				return nil, err
			}
			return &Tag{Type: tagType, Name: name, Value: val}, nil
		}
		if tagType != TagCompound {
			return nil, nil
		}
		return r.descend(rest)
	}
}

// --- materialization ---

func (r *Reader) readPayload(tagType byte) (any, error) {
	switch tagType {
	case TagByte:
		return r.readU8()
	case TagShort:
		return r.readI16()
	case TagInt:
		return r.readI32()
	case TagLong:
		return r.readI64()
	case TagFloat:
		return r.readF32()
	case TagDouble:
		return r.readF64()
	case TagByteArray:
		return r.readByteArray()
	case TagString:
		return r.readStringValue()
	case TagList:
		return r.readList()
	case TagCompound:
		return r.readCompoundBody()
	case TagIntArray:
		return r.readIntArrayBulk()
	case TagLongArray:
		return r.readLongArrayBulk()
	default:
		return nil, &UnknownTagIDError{ID: tagType}
	}
}

func (r *Reader) readCompoundBody() (Compound, error) {
	c := make(Compound)
	for {
		tagType, err := r.readU8()
		if err != nil {
			return nil, err
		}
		if tagType == TagEnd {
			return c, nil
		}
		name, err := r.readName()
		if err != nil {
			return nil, err
		}
		val, err := r.readPayload(tagType)
		if err != nil {
			return nil, err
		}
		c[name] = Tag{Type: tagType, Name: name, Value: val}
	}
}

func (r *Reader) readList() (*List, error) {
	elemType, err := r.readU8()
	if err != nil {
		return nil, err
	}
	n, err := r.readI32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, &NegativeLengthError{Kind: "list", N: n}
	}
	values := make([]any, n)
	for i := range values {
		v, err := r.readPayload(elemType)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return &List{ElemType: elemType, Values: values}, nil
}

func (r *Reader) readByteArray() ([]byte, error) {
	n, err := r.readI32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, &NegativeLengthError{Kind: "byte array", N: n}
	}
	raw, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

// readIntArrayBulk and readLongArrayBulk read the whole array as one
// contiguous slice and then byte-swap in a tight loop, rather than calling
// a per-element reader n times — this is the hot path for block_states.data
// and Heightmaps, and dominates NBT parsing cost.
func (r *Reader) readIntArrayBulk() ([]int32, error) {
	n, err := r.readI32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, &NegativeLengthError{Kind: "int array", N: n}
	}
	raw, err := r.take(int(n) * 4)
	if err != nil {
		return nil, err
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(binary.BigEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}

func (r *Reader) readLongArrayBulk() ([]int64, error) {
	n, err := r.readI32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, &NegativeLengthError{Kind: "long array", N: n}
	}
	raw, err := r.take(int(n) * 8)
	if err != nil {
		return nil, err
	}
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(binary.BigEndian.Uint64(raw[i*8:]))
	}
	return out, nil
}

// --- skipping — never allocates for the skipped payload ---

func (r *Reader) skipPayload(tagType byte) error {
	switch tagType {
	case TagByte:
		return r.skip(1)
	case TagShort:
		return r.skip(2)
	case TagInt:
		return r.skip(4)
	case TagLong:
		return r.skip(8)
	case TagFloat:
		return r.skip(4)
	case TagDouble:
		return r.skip(8)
	case TagByteArray:
		n, err := r.readI32()
		if err != nil {
			return err
		}
		if n < 0 {
			return &NegativeLengthError{Kind: "byte array", N: n}
		}
		return r.skip(int(n))
	case TagString:
		n, err := r.readU16()
		if err != nil {
			return err
		}
		return r.skip(int(n))
	case TagList:
		elemType, err := r.readU8()
		if err != nil {
			return err
		}
		n, err := r.readI32()
		if err != nil {
			return err
		}
		if n < 0 {
			return &NegativeLengthError{Kind: "list", N: n}
		}
		for i := int32(0); i < n; i++ {
			if err := r.skipPayload(elemType); err != nil {
				return err
			}
		}
		return nil
	case TagCompound:
		return r.skipCompoundBody()
	case TagIntArray:
		n, err := r.readI32()
		if err != nil {
			return err
		}
		if n < 0 {
			return &NegativeLengthError{Kind: "int array", N: n}
		}
		return r.skip(int(n) * 4)
	case TagLongArray:
		n, err := r.readI32()
		if err != nil {
			return err
		}
		if n < 0 {
			return &NegativeLengthError{Kind: "long array", N: n}
		}
		return r.skip(int(n) * 8)
	default:
		return &UnknownTagIDError{ID: tagType}
	}
}

func (r *Reader) skipCompoundBody() error {
	for {
		tagType, err := r.readU8()
		if err != nil {
			return err
		}
		if tagType == TagEnd {
			return nil
		}
		if _, err := r.readName(); err != nil {
			return err
		}
		if err := r.skipPayload(tagType); err != nil {
			return err
		}
	}
}

// --- primitive cursor operations ---

func (r *Reader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return &TruncatedError{Wanted: r.pos + n - len(r.buf), Have: len(r.buf) - r.pos}
	}
	return nil
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 {
		return nil, &NegativeLengthError{Kind: "buffer", N: int32(n)}
	}
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) skip(n int) error {
	_, err := r.take(n)
	return err
}

func (r *Reader) readU8() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) readU16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *Reader) readI16() (int16, error) {
	v, err := r.readU16()
	return int16(v), err
}

func (r *Reader) readI32() (int32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (r *Reader) readI64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (r *Reader) readF32() (float32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

func (r *Reader) readF64() (float64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// readStringValue decodes a length-prefixed UTF-8 string tolerantly:
// invalid byte sequences are replaced, never fatal, matching observed
// producer behavior.
func (r *Reader) readStringValue() (string, error) {
	n, err := r.readU16()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return tolerantUTF8(b), nil
}

// readName is readStringValue plus an interning pass: tag names repeat
// heavily across sections and palette entries, so caching them cuts
// allocations. This is purely an optimization and never changes the
// returned string's content.
func (r *Reader) readName() (string, error) {
	n, err := r.readU16()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	if s, ok := r.intern[string(b)]; ok {
		return s, nil
	}
	s := tolerantUTF8(b)
	r.intern[string(b)] = s
	return s, nil
}

func tolerantUTF8(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}

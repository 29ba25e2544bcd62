// Package wire owns the field framing primitives for the boundary encoding.
//
// Ownership boundary:
// - field key packing (tag + wire type)
// - varint and length-delimited field framing
// - raw field iteration over an encoded payload
package wire

import (
	"encoding/binary"
	"errors"
)

// Wire types. Keys are uvarint (tag<<3 | type); types 1 and 5 are reserved.
const (
	TypeVarint uint8 = 0
	TypeBytes  uint8 = 2
)

// MaxTag bounds field tags so a key always fits a uint32 varint.
const MaxTag = 1<<29 - 1

var (
	ErrTruncated  = errors.New("wire: truncated field")
	ErrInvalidKey = errors.New("wire: invalid field key")
)

// Field is one raw framed field. Varint carries the value for TypeVarint,
// Bytes for TypeBytes.
type Field struct {
	Tag    int
	Type   uint8
	Varint uint64
	Bytes  []byte
}

// AppendVarintField appends a varint-typed field to dst.
func AppendVarintField(dst []byte, tag int, v uint64) []byte {
	dst = binary.AppendUvarint(dst, uint64(tag)<<3|uint64(TypeVarint))
	return binary.AppendUvarint(dst, v)
}

// AppendBytesField appends a length-delimited field to dst.
func AppendBytesField(dst []byte, tag int, b []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(tag)<<3|uint64(TypeBytes))
	dst = binary.AppendUvarint(dst, uint64(len(b)))
	return append(dst, b...)
}

// AppendField appends a raw field to dst.
func AppendField(dst []byte, f Field) ([]byte, error) {
	if f.Tag < 1 || f.Tag > MaxTag {
		return nil, ErrInvalidKey
	}
	switch f.Type {
	case TypeVarint:
		return AppendVarintField(dst, f.Tag, f.Varint), nil
	case TypeBytes:
		return AppendBytesField(dst, f.Tag, f.Bytes), nil
	default:
		return nil, ErrInvalidKey
	}
}

// ReadField reads one field from the front of buf and reports bytes consumed.
// A malformed key (tag zero, tag overflow, reserved wire type) fails with
// ErrInvalidKey; running out of bytes mid-field fails with ErrTruncated.
func ReadField(buf []byte) (Field, int, error) {
	key, n := binary.Uvarint(buf)
	if n <= 0 {
		return Field{}, 0, ErrTruncated
	}
	tag := key >> 3
	typ := uint8(key & 0x7)
	if tag == 0 || tag > MaxTag {
		return Field{}, 0, ErrInvalidKey
	}
	f := Field{Tag: int(tag), Type: typ}
	switch typ {
	case TypeVarint:
		v, vn := binary.Uvarint(buf[n:])
		if vn <= 0 {
			return Field{}, 0, ErrTruncated
		}
		f.Varint = v
		return f, n + vn, nil
	case TypeBytes:
		l, ln := binary.Uvarint(buf[n:])
		if ln <= 0 {
			return Field{}, 0, ErrTruncated
		}
		start := n + ln
		if l > uint64(len(buf)-start) {
			return Field{}, 0, ErrTruncated
		}
		val := make([]byte, l)
		copy(val, buf[start:start+int(l)])
		f.Bytes = val
		return f, start + int(l), nil
	default:
		return Field{}, 0, ErrInvalidKey
	}
}

// DecodeFields splits payload into its raw fields, preserving order.
func DecodeFields(payload []byte) ([]Field, error) {
	fields := make([]Field, 0, 4)
	for i := 0; i < len(payload); {
		f, n, err := ReadField(payload[i:])
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
		i += n
	}
	return fields, nil
}

// EncodeFields frames fields in the order given.
func EncodeFields(fields []Field) ([]byte, error) {
	out := make([]byte, 0, 16)
	var err error
	for _, f := range fields {
		out, err = AppendField(out, f)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Zigzag maps signed values to unsigned varints so small negatives stay short.
func Zigzag(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

// Unzigzag reverses Zigzag.
func Unzigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// Package codec converts between native in-memory values and the boundary
// wire encoding. Encoding is deterministic; decoding preserves unknown tags
// so newer schemas pass through older decoders intact.
package codec

import (
	"bytes"
	"sort"

	"github.com/inchori/raftify/internal/schema"
	"github.com/inchori/raftify/internal/wire"
)

// Scalar is one native field element. Exactly the slot selected by Kind is
// meaningful.
type Scalar struct {
	Kind  schema.Kind
	I32   int32
	I64   int64
	Bool  bool
	Str   string
	Bytes []byte
	Msg   *Value
}

func Int32Scalar(v int32) Scalar    { return Scalar{Kind: schema.KindInt32, I32: v} }
func Int64Scalar(v int64) Scalar    { return Scalar{Kind: schema.KindInt64, I64: v} }
func BoolScalar(v bool) Scalar      { return Scalar{Kind: schema.KindBool, Bool: v} }
func StringScalar(v string) Scalar  { return Scalar{Kind: schema.KindString, Str: v} }
func BytesScalar(v []byte) Scalar   { return Scalar{Kind: schema.KindBytes, Bytes: v} }
func MessageScalar(v *Value) Scalar { return Scalar{Kind: schema.KindMessage, Msg: v} }

// Value is a native message value keyed by field tag. Absent optional fields
// have no entry at all, which is distinct from a present zero value. Unknown
// fields seen at decode are kept in arrival order and re-emitted on encode.
type Value struct {
	Message string
	fields  map[int][]Scalar
	unknown []wire.Field
}

// NewValue creates an empty value for the named message.
func NewValue(message string) *Value {
	return &Value{Message: message, fields: make(map[int][]Scalar)}
}

// Set replaces the field at tag with a single element.
func (v *Value) Set(tag int, s Scalar) *Value {
	v.fields[tag] = []Scalar{s}
	return v
}

// Append adds one element to a repeated field, preserving order.
func (v *Value) Append(tag int, s Scalar) *Value {
	v.fields[tag] = append(v.fields[tag], s)
	return v
}

// Clear removes the field at tag, returning it to the not-present state.
func (v *Value) Clear(tag int) {
	delete(v.fields, tag)
}

// Has reports whether the field at tag is present.
func (v *Value) Has(tag int) bool {
	return len(v.fields[tag]) > 0
}

// Get returns the first element at tag.
func (v *Value) Get(tag int) (Scalar, bool) {
	ss := v.fields[tag]
	if len(ss) == 0 {
		return Scalar{}, false
	}
	return ss[0], true
}

// GetAll returns every element at tag in order.
func (v *Value) GetAll(tag int) []Scalar {
	return v.fields[tag]
}

// Tags lists present tags in ascending order.
func (v *Value) Tags() []int {
	tags := make([]int, 0, len(v.fields))
	for tag := range v.fields {
		tags = append(tags, tag)
	}
	sort.Ints(tags)
	return tags
}

// Unknown returns the preserved unknown fields in arrival order.
func (v *Value) Unknown() []wire.Field {
	return v.unknown
}

// Typed setters.

func (v *Value) SetInt32(tag int, x int32) *Value   { return v.Set(tag, Int32Scalar(x)) }
func (v *Value) SetInt64(tag int, x int64) *Value   { return v.Set(tag, Int64Scalar(x)) }
func (v *Value) SetBool(tag int, x bool) *Value     { return v.Set(tag, BoolScalar(x)) }
func (v *Value) SetString(tag int, x string) *Value { return v.Set(tag, StringScalar(x)) }
func (v *Value) SetBytes(tag int, x []byte) *Value  { return v.Set(tag, BytesScalar(x)) }
func (v *Value) SetMessage(tag int, x *Value) *Value {
	return v.Set(tag, MessageScalar(x))
}

// Typed getters. The second result is presence, never a default stand-in.

func (v *Value) Int32(tag int) (int32, bool) {
	s, ok := v.Get(tag)
	if !ok || s.Kind != schema.KindInt32 {
		return 0, false
	}
	return s.I32, true
}

func (v *Value) Int64(tag int) (int64, bool) {
	s, ok := v.Get(tag)
	if !ok || s.Kind != schema.KindInt64 {
		return 0, false
	}
	return s.I64, true
}

func (v *Value) Bool(tag int) (bool, bool) {
	s, ok := v.Get(tag)
	if !ok || s.Kind != schema.KindBool {
		return false, false
	}
	return s.Bool, true
}

func (v *Value) String(tag int) (string, bool) {
	s, ok := v.Get(tag)
	if !ok || s.Kind != schema.KindString {
		return "", false
	}
	return s.Str, true
}

func (v *Value) BytesAt(tag int) ([]byte, bool) {
	s, ok := v.Get(tag)
	if !ok || s.Kind != schema.KindBytes {
		return nil, false
	}
	return s.Bytes, true
}

func (v *Value) MessageAt(tag int) (*Value, bool) {
	s, ok := v.Get(tag)
	if !ok || s.Kind != schema.KindMessage {
		return nil, false
	}
	return s.Msg, true
}

// Equal reports deep equality including presence, element order, and
// preserved unknown fields.
func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return v == o
	}
	if v.Message != o.Message || len(v.fields) != len(o.fields) {
		return false
	}
	for tag, ss := range v.fields {
		os := o.fields[tag]
		if len(os) != len(ss) {
			return false
		}
		for i := range ss {
			if !ss[i].equal(os[i]) {
				return false
			}
		}
	}
	if len(v.unknown) != len(o.unknown) {
		return false
	}
	for i := range v.unknown {
		if !unknownEqual(v.unknown[i], o.unknown[i]) {
			return false
		}
	}
	return true
}

func (s Scalar) equal(o Scalar) bool {
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case schema.KindInt32:
		return s.I32 == o.I32
	case schema.KindInt64:
		return s.I64 == o.I64
	case schema.KindBool:
		return s.Bool == o.Bool
	case schema.KindString:
		return s.Str == o.Str
	case schema.KindBytes:
		return bytes.Equal(s.Bytes, o.Bytes)
	case schema.KindMessage:
		return s.Msg.Equal(o.Msg)
	default:
		return false
	}
}

func unknownEqual(a, b wire.Field) bool {
	return a.Tag == b.Tag && a.Type == b.Type &&
		a.Varint == b.Varint && bytes.Equal(a.Bytes, b.Bytes)
}

package codec

import (
	"fmt"
	"sort"

	logs "github.com/inchori/raftify/internal/logging"
	"github.com/inchori/raftify/internal/schema"
	"github.com/inchori/raftify/internal/wire"
)

// Encode frames v according to def. Output is deterministic: declared fields
// in ascending tag order, repeated elements in insertion order, preserved
// unknown fields last in arrival order. The returned bytes are never mutated
// afterwards by this package.
func Encode(v *Value, def schema.MessageDef, sch *schema.Schema) ([]byte, error) {
	if v == nil {
		return nil, &EncodeError{Message: def.Name, Reason: "nil value"}
	}
	if v.Message != "" && v.Message != def.Name {
		return nil, &EncodeError{
			Message: def.Name,
			Reason:  fmt.Sprintf("value is %q, definition is %q", v.Message, def.Name),
		}
	}
	for _, tag := range v.Tags() {
		if _, ok := def.Field(tag); !ok {
			return nil, &EncodeError{Message: def.Name, Tag: tag, Reason: "tag not in definition"}
		}
	}

	fields := append([]schema.FieldDef(nil), def.Fields...)
	sortFieldsByTag(fields)

	out := make([]byte, 0, 32)
	for _, fd := range fields {
		elems := v.GetAll(fd.Tag)
		if len(elems) == 0 {
			if fd.Optional {
				continue
			}
			return nil, &EncodeError{Message: def.Name, Tag: fd.Tag, Reason: "required field absent"}
		}
		if !fd.Repeated && len(elems) > 1 {
			return nil, &EncodeError{Message: def.Name, Tag: fd.Tag, Reason: "multiple elements on singular field"}
		}
		for _, s := range elems {
			var err error
			out, err = appendScalar(out, fd, s, def.Name, sch)
			if err != nil {
				return nil, err
			}
		}
	}
	for _, uf := range v.Unknown() {
		var err error
		out, err = wire.AppendField(out, uf)
		if err != nil {
			return nil, &EncodeError{Message: def.Name, Tag: uf.Tag, Reason: "bad preserved field"}
		}
	}
	logs.Tracef("codec.Encode message=%s bytes=%d", def.Name, len(out))
	return out, nil
}

func appendScalar(dst []byte, fd schema.FieldDef, s Scalar, msgName string, sch *schema.Schema) ([]byte, error) {
	if s.Kind != fd.Kind {
		return nil, &EncodeError{
			Message: msgName,
			Tag:     fd.Tag,
			Reason:  fmt.Sprintf("value kind %s, declared %s", s.Kind, fd.Kind),
		}
	}
	switch fd.Kind {
	case schema.KindInt32:
		return wire.AppendVarintField(dst, fd.Tag, wire.Zigzag(int64(s.I32))), nil
	case schema.KindInt64:
		return wire.AppendVarintField(dst, fd.Tag, wire.Zigzag(s.I64)), nil
	case schema.KindBool:
		var b uint64
		if s.Bool {
			b = 1
		}
		return wire.AppendVarintField(dst, fd.Tag, b), nil
	case schema.KindString:
		return wire.AppendBytesField(dst, fd.Tag, []byte(s.Str)), nil
	case schema.KindBytes:
		return wire.AppendBytesField(dst, fd.Tag, s.Bytes), nil
	case schema.KindMessage:
		nestedDef, err := sch.Resolve(fd.MessageType)
		if err != nil {
			return nil, &EncodeError{Message: msgName, Tag: fd.Tag, Reason: err.Error()}
		}
		nested, err := Encode(s.Msg, nestedDef, sch)
		if err != nil {
			return nil, err
		}
		return wire.AppendBytesField(dst, fd.Tag, nested), nil
	default:
		return nil, &EncodeError{Message: msgName, Tag: fd.Tag, Reason: "unsupported kind"}
	}
}

func sortFieldsByTag(fields []schema.FieldDef) {
	sort.Slice(fields, func(i, j int) bool { return fields[i].Tag < fields[j].Tag })
}

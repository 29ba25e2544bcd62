package codec

import (
	"errors"
	"fmt"
	"math"

	logs "github.com/inchori/raftify/internal/logging"
	"github.com/inchori/raftify/internal/schema"
	"github.com/inchori/raftify/internal/wire"
)

// Decode parses b against def. Tags that are well-formed on the wire but not
// in def are preserved-and-skipped into the value's unknown list, which is
// what lets an old decoder accept payloads from a newer compatible schema.
// Malformed keys fail with UnknownTag, exhausted input with Truncated, and a
// wire type conflicting with the declared field type with TypeMismatch.
func Decode(b []byte, def schema.MessageDef, sch *schema.Schema) (*Value, error) {
	v := NewValue(def.Name)
	for i := 0; i < len(b); {
		raw, n, err := wire.ReadField(b[i:])
		if err != nil {
			return nil, wireDecodeError(err, def.Name)
		}
		i += n

		fd, known := def.Field(raw.Tag)
		if !known {
			v.unknown = append(v.unknown, raw)
			continue
		}
		s, err := decodeScalar(raw, fd, def.Name, sch)
		if err != nil {
			return nil, err
		}
		if fd.Repeated {
			v.Append(fd.Tag, s)
		} else {
			// Last occurrence wins on singular fields.
			v.Set(fd.Tag, s)
		}
	}
	logs.Tracef("codec.Decode message=%s fields=%d unknown=%d",
		def.Name, len(v.fields), len(v.unknown))
	return v, nil
}

func decodeScalar(raw wire.Field, fd schema.FieldDef, msgName string, sch *schema.Schema) (Scalar, error) {
	switch fd.Kind {
	case schema.KindInt32:
		if raw.Type != wire.TypeVarint {
			return Scalar{}, typeMismatch(msgName, fd, raw)
		}
		x := wire.Unzigzag(raw.Varint)
		if x < math.MinInt32 || x > math.MaxInt32 {
			return Scalar{}, &DecodeError{
				Reason:  TypeMismatch,
				Message: msgName,
				Tag:     fd.Tag,
				Detail:  fmt.Sprintf("value %d overflows int32", x),
			}
		}
		return Int32Scalar(int32(x)), nil
	case schema.KindInt64:
		if raw.Type != wire.TypeVarint {
			return Scalar{}, typeMismatch(msgName, fd, raw)
		}
		return Int64Scalar(wire.Unzigzag(raw.Varint)), nil
	case schema.KindBool:
		if raw.Type != wire.TypeVarint {
			return Scalar{}, typeMismatch(msgName, fd, raw)
		}
		if raw.Varint > 1 {
			return Scalar{}, &DecodeError{
				Reason:  TypeMismatch,
				Message: msgName,
				Tag:     fd.Tag,
				Detail:  fmt.Sprintf("invalid bool value %d", raw.Varint),
			}
		}
		return BoolScalar(raw.Varint == 1), nil
	case schema.KindString:
		if raw.Type != wire.TypeBytes {
			return Scalar{}, typeMismatch(msgName, fd, raw)
		}
		return StringScalar(string(raw.Bytes)), nil
	case schema.KindBytes:
		if raw.Type != wire.TypeBytes {
			return Scalar{}, typeMismatch(msgName, fd, raw)
		}
		return BytesScalar(raw.Bytes), nil
	case schema.KindMessage:
		if raw.Type != wire.TypeBytes {
			return Scalar{}, typeMismatch(msgName, fd, raw)
		}
		nestedDef, err := sch.Resolve(fd.MessageType)
		if err != nil {
			return Scalar{}, &DecodeError{
				Reason:  TypeMismatch,
				Message: msgName,
				Tag:     fd.Tag,
				Detail:  err.Error(),
			}
		}
		nested, err := Decode(raw.Bytes, nestedDef, sch)
		if err != nil {
			return Scalar{}, err
		}
		return MessageScalar(nested), nil
	default:
		return Scalar{}, typeMismatch(msgName, fd, raw)
	}
}

func typeMismatch(msgName string, fd schema.FieldDef, raw wire.Field) error {
	return &DecodeError{
		Reason:  TypeMismatch,
		Message: msgName,
		Tag:     fd.Tag,
		Detail:  fmt.Sprintf("wire type %d for declared %s", raw.Type, fd.Kind),
	}
}

func wireDecodeError(err error, msgName string) error {
	switch {
	case errors.Is(err, wire.ErrTruncated):
		return &DecodeError{Reason: Truncated, Message: msgName, Detail: err.Error()}
	case errors.Is(err, wire.ErrInvalidKey):
		return &DecodeError{Reason: UnknownTag, Message: msgName, Detail: err.Error()}
	default:
		return &DecodeError{Reason: Truncated, Message: msgName, Detail: err.Error()}
	}
}

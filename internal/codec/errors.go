package codec

import "fmt"

// DecodeReason classifies decode failures.
type DecodeReason uint8

const (
	Truncated DecodeReason = iota + 1
	UnknownTag
	TypeMismatch
)

func (r DecodeReason) String() string {
	switch r {
	case Truncated:
		return "truncated"
	case UnknownTag:
		return "unknown_tag"
	case TypeMismatch:
		return "type_mismatch"
	default:
		return fmt.Sprintf("decode_error(%d)", uint8(r))
	}
}

// DecodeError reports a wire payload that violates the contract. It is
// surfaced to the caller and never retried.
type DecodeError struct {
	Reason  DecodeReason
	Message string
	Tag     int
	Detail  string
}

func (e *DecodeError) Error() string {
	if e.Tag == 0 {
		return fmt.Sprintf("codec: message=%s: %s: %s", e.Message, e.Reason, e.Detail)
	}
	return fmt.Sprintf("codec: message=%s tag=%d: %s: %s", e.Message, e.Tag, e.Reason, e.Detail)
}

// EncodeError reports a native value that does not fit its declared message
// definition. Always a caller bug, never a wire fault.
type EncodeError struct {
	Message string
	Tag     int
	Reason  string
}

func (e *EncodeError) Error() string {
	if e.Tag == 0 {
		return fmt.Sprintf("codec: encode message=%s: %s", e.Message, e.Reason)
	}
	return fmt.Sprintf("codec: encode message=%s tag=%d: %s", e.Message, e.Tag, e.Reason)
}

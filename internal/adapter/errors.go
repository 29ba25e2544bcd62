package adapter

import "fmt"

// FailureKind classifies boundary crossing failures.
type FailureKind uint8

const (
	UnknownMethod FailureKind = iota + 1
	HandleExpired
	Decode
	Core
)

func (k FailureKind) String() string {
	switch k {
	case UnknownMethod:
		return "unknown_method"
	case HandleExpired:
		return "handle_expired"
	case Decode:
		return "decode_error"
	case Core:
		return "core_error"
	default:
		return fmt.Sprintf("adapter_error(%d)", uint8(k))
	}
}

// Error is a failure surfaced across the boundary. Err is the originating
// error, carried whole so no kind or message detail is lost in translation.
type Error struct {
	Kind   FailureKind
	Method string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("adapter: method=%s: %s", e.Method, e.Kind)
	}
	return fmt.Sprintf("adapter: method=%s: %s: %v", e.Method, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

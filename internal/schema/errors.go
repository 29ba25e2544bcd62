package schema

import "fmt"

// ErrorKind classifies registry failures.
type ErrorKind uint8

const (
	ErrorUnknownType ErrorKind = iota + 1
	ErrorIncompatibleChange
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorUnknownType:
		return "unknown_type"
	case ErrorIncompatibleChange:
		return "incompatible_change"
	default:
		return fmt.Sprintf("schema_error(%d)", uint8(k))
	}
}

// Error is a registry contract failure. It is never retried.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("schema: %s: %s", e.Kind, e.Detail)
}

// ValidationError reports a malformed schema definition at load time.
type ValidationError struct {
	Message string
	Tag     int
	Reason  string
}

func (e ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("schema: %s", e.Reason)
	}
	if e.Tag == 0 {
		return fmt.Sprintf("schema: message=%s: %s", e.Message, e.Reason)
	}
	return fmt.Sprintf("schema: message=%s tag=%d: %s", e.Message, e.Tag, e.Reason)
}

package core

import "fmt"

// ErrorKind classifies core surface failures.
type ErrorKind uint8

const (
	InvalidArgument ErrorKind = iota + 1
	NotFound
	Internal
	ResourceExhausted
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case NotFound:
		return "not_found"
	case Internal:
		return "internal"
	case ResourceExhausted:
		return "resource_exhausted"
	default:
		return fmt.Sprintf("core_error(%d)", uint8(k))
	}
}

// Error is a core surface failure. Kind and Message cross the boundary
// losslessly; the adapter never rewrites them.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("core: %s: %s", e.Kind, e.Message)
}

func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// HandleError reports use of a native resource after its release was
// signalled. The adapter maps it to its HandleExpired failure.
type HandleError struct {
	ID string
}

func (e *HandleError) Error() string {
	return fmt.Sprintf("core: handle %s expired", e.ID)
}

package core

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindIO Kind = iota + 1
	KindNotFound
	KindMalformed
	KindBusy
	KindDenied
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindNotFound:
		return "not found"
	case KindMalformed:
		return "malformed input"
	case KindBusy:
		return "busy"
	case KindDenied:
		return "denied"
	}
	return "unknown"
}

// Error is the failure value returned at operation boundaries. Message is
// meant for humans; Err keeps the cause for errors.Is/As.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Errorf(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

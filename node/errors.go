package node

import (
	"errors"
	"fmt"
)

// ErrInvalidAccessor is returned when an exclusive accessor does not point at
// a node: it was built from a nil pointer or carries an unknown kind. It is
// the only error a representation conversion can produce.
var ErrInvalidAccessor = errors.New("node: invalid accessor")

// IsInvalidAccessorErr returns true if err is or wraps ErrInvalidAccessor.
func IsInvalidAccessorErr(err error) bool {
	return errors.Is(err, ErrInvalidAccessor)
}

// ErrorKind classifies a failure at the parse/deparse boundary.
type ErrorKind int

const (
	// KindInput means the input was rejected before reaching the engine.
	KindInput ErrorKind = iota + 1
	// KindParse means the engine could not parse the input.
	KindParse
	// KindDecode means the engine's tree could not be decoded.
	KindDecode
	// KindEncode means statements could not be serialized for deparsing.
	KindEncode
	// KindDeparse means the engine could not render the tree.
	KindDeparse
)

func (k ErrorKind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindParse:
		return "parse"
	case KindDecode:
		return "decode"
	case KindEncode:
		return "encode"
	case KindDeparse:
		return "deparse"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a failure from the parse/deparse boundary. Message is the
// collaborator's text, unchanged.
type Error struct {
	Kind     ErrorKind
	Message  string
	Warnings []string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("node: %s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsParseErr returns true if err is or wraps an *Error of KindParse.
func IsParseErr(err error) bool {
	return errorKind(err) == KindParse
}

// IsDeparseErr returns true if err is or wraps an *Error of KindDeparse.
func IsDeparseErr(err error) bool {
	return errorKind(err) == KindDeparse
}

func errorKind(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func wrap(kind ErrorKind, err error, warnings []string) *Error {
	return &Error{Kind: kind, Message: err.Error(), Warnings: warnings, Err: err}
}

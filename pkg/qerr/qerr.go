// Package qerr defines the error kinds surfaced by the query execution core.
//
// Every error that crosses a package boundary carries exactly one Kind so callers
// can branch with errors.Is against the sentinel values:
//
//	if errors.Is(err, qerr.ErrNotFound) {
//		// graph was not in the catalog
//	}
package qerr

import (
	"errors"
	"fmt"
)

// Kind enumerates the error categories of the execution core.
type Kind int

const (
	// InvalidArgument covers bad arity, wrong specifier types, empty specifiers
	// and variable role mismatches in subquery projections.
	InvalidArgument Kind = iota + 1
	// NotFound is returned when a named entity is absent and the caller asked to fail.
	NotFound
	// ParseError is returned when a query string cannot be compiled.
	ParseError
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case NotFound:
		return "NotFound"
	case ParseError:
		return "ParseError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sentinels usable with errors.Is.
var (
	ErrInvalidArgument = &Error{Kind: InvalidArgument}
	ErrNotFound        = &Error{Kind: NotFound}
	ErrParse           = &Error{Kind: ParseError}
)

// Error is a classified error. Op names the operation that failed
// (e.g. "gds.graph.project"); Err is an optional wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Invalid builds an InvalidArgument error.
func Invalid(op, format string, args ...any) error {
	return &Error{Kind: InvalidArgument, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Missing builds a NotFound error.
func Missing(op, format string, args ...any) error {
	return &Error{Kind: NotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Parse builds a ParseError wrapping cause (which may be nil).
func Parse(op string, cause error, format string, args ...any) error {
	return &Error{Kind: ParseError, Op: op, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf reports the Kind of err, or 0 when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

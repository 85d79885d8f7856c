package query

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures.
type ErrorKind int

const (
	// ErrSchema marks a malformed or event-less schema input.
	ErrSchema ErrorKind = iota + 1
	// ErrSelection marks a selected event name with no catalog match.
	ErrSelection
	// ErrQuery marks a malformed address, transport failure, or RPC rejection.
	ErrQuery
)

func (k ErrorKind) String() string {
	switch k {
	case ErrSchema:
		return "schema"
	case ErrSelection:
		return "selection"
	case ErrQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Error is a tagged pipeline failure. It carries a kind and detail and is
// rendered to display text only at the presentation boundary.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the kind from a pipeline error chain.
func KindOf(err error) (ErrorKind, bool) {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind, true
	}
	return 0, false
}

func selectionError(detail string) *Error {
	return &Error{Kind: ErrSelection, Detail: detail}
}

func queryError(detail string, err error) *Error {
	return &Error{Kind: ErrQuery, Detail: detail, Err: err}
}

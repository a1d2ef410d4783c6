package store

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means the store cannot be reached or a snapshot cannot
	// be opened.
	ErrUnavailable = errors.New("point store unavailable")

	// ErrQueryFailed means a retrieval against an open snapshot failed.
	ErrQueryFailed = errors.New("point store query failed")
)

// Error is a backend failure tagged with its kind.
type Error struct {
	// Kind is ErrUnavailable or ErrQueryFailed.
	Kind error

	// Op names the failing operation, e.g. "query points".
	Op string

	// Err is the driver error.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

// Unwrap exposes both the kind and the driver error to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Unavailable wraps err as an ErrUnavailable failure of op.
func Unavailable(op string, err error) error {
	return &Error{Kind: ErrUnavailable, Op: op, Err: err}
}

// QueryFailed wraps err as an ErrQueryFailed failure of op.
func QueryFailed(op string, err error) error {
	return &Error{Kind: ErrQueryFailed, Op: op, Err: err}
}

// IsUnavailable returns true if err is an ErrUnavailable failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsQueryFailed returns true if err is an ErrQueryFailed failure.
func IsQueryFailed(err error) bool {
	return errors.Is(err, ErrQueryFailed)
}

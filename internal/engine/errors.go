package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/cropq/internal/store"
)

// EvalErrorCode categorizes evaluation errors.
type EvalErrorCode string

const (
	// ErrCodeStoreUnavailable indicates the snapshot could not be opened or
	// the connection was lost.
	ErrCodeStoreUnavailable EvalErrorCode = "STORE_UNAVAILABLE"

	// ErrCodeStoreQueryFailed indicates a retrieval failed.
	ErrCodeStoreQueryFailed EvalErrorCode = "STORE_QUERY_FAILED"

	// ErrCodeCanceled indicates the context ended before evaluation finished.
	ErrCodeCanceled EvalErrorCode = "CANCELED"

	// ErrCodeInvalidQuery indicates the document has no query tree.
	ErrCodeInvalidQuery EvalErrorCode = "INVALID_QUERY"
)

// EvalError is an evaluation failure.
type EvalError struct {
	// Code identifies the error category.
	Code EvalErrorCode

	// ExecutionID identifies the failed execution.
	ExecutionID string

	// Message is a human-readable description.
	Message string

	// Err is the underlying store or context error.
	Err error
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.ExecutionID != "" {
		msg += fmt.Sprintf(" (execution=%s)", e.ExecutionID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *EvalError) Unwrap() error {
	return e.Err
}

// IsStoreUnavailable returns true if err is a STORE_UNAVAILABLE evaluation
// error or wraps store.ErrUnavailable.
func IsStoreUnavailable(err error) bool {
	var ee *EvalError
	if errors.As(err, &ee) && ee.Code == ErrCodeStoreUnavailable {
		return true
	}
	return errors.Is(err, store.ErrUnavailable)
}

// IsStoreQueryFailed returns true if err is a STORE_QUERY_FAILED evaluation
// error.
func IsStoreQueryFailed(err error) bool {
	var ee *EvalError
	return errors.As(err, &ee) && ee.Code == ErrCodeStoreQueryFailed
}

// CodeOf returns the evaluation error code of err, or "" if err is not an
// *EvalError.
func CodeOf(err error) EvalErrorCode {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// wrapStoreError classifies a failure reported during evaluation.
func wrapStoreError(ctx context.Context, id, msg string, err error) error {
	code := ErrCodeStoreQueryFailed
	switch {
	case ctx.Err() != nil:
		code = ErrCodeCanceled
		err = ctx.Err()
	case store.IsUnavailable(err):
		code = ErrCodeStoreUnavailable
	}
	return &EvalError{Code: code, ExecutionID: id, Message: msg, Err: err}
}

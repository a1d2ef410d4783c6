package querydoc

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes parse failures.
type ErrorCode string

const (
	// ErrCodeMalformedDocument indicates a wrong type, a missing region
	// field, or input that cannot be decoded at all.
	ErrCodeMalformedDocument ErrorCode = "MALFORMED_DOCUMENT"

	// ErrCodeMissingField indicates the top level lacks valid_region or query.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"

	// ErrCodeUnknownOperator indicates a node matches none of the operators.
	ErrCodeUnknownOperator ErrorCode = "UNKNOWN_OPERATOR"

	// ErrCodeAmbiguousOperator indicates a node carries more than one operator key.
	ErrCodeAmbiguousOperator ErrorCode = "AMBIGUOUS_OPERATOR"
)

// ParseError is returned for every rejected document.
//
// Parsing stops at the first error; no partial tree is ever returned.
type ParseError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Path locates the offending value, e.g. "query.operator_and[2].operator_crop.region".
	// Empty when the document could not be decoded at all.
	Path string

	// Message is a human-readable description.
	Message string

	// Err is the underlying decoder error, if any.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s at %s: %s", e.Code, e.Path, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(code ErrorCode, path, format string, args ...any) *ParseError {
	return &ParseError{Code: code, Path: path, Message: fmt.Sprintf(format, args...)}
}

// ErrorCodeOf returns the ParseError code of err, or "" if err is not a
// parse error. Uses errors.As to handle wrapped errors.
func ErrorCodeOf(err error) ErrorCode {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsParseError returns true if err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	return ErrorCodeOf(err) != ""
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failure
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates insufficient permissions
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates a resource conflict
	ErrConflict = errors.New("conflict")

	// ErrParse indicates a malformed timestamp
	ErrParse = errors.New("parse error")

	// ErrFetch indicates the schedule API could not be read
	ErrFetch = errors.New("fetch failed")
)

// ParseError reports a timestamp that is not a recognizable UTC timestamp.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid timestamp %q", e.Input)
	}
	return fmt.Sprintf("invalid timestamp %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

// FetchError reports a failed call to the schedule API. Status is zero for
// transport failures. Err carries the mapped sentinel (ErrNotFound, ...) or
// the underlying transport error.
type FetchError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	msg := e.Op
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetch}
	}
	return []error{ErrFetch, e.Err}
}

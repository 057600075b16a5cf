package server

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNilStore indicates New was called without a cache.
	ErrNilStore = errors.New("server: nil store")

	// ErrInvalidConfig indicates a Config value that cannot be used.
	ErrInvalidConfig = errors.New("server: invalid config")

	// ErrAlreadyServing indicates Serve was called more than once.
	ErrAlreadyServing = errors.New("server: already serving")

	// ErrDrainTimeout indicates in-flight requests outlived the drain deadline
	// and their connections were closed.
	ErrDrainTimeout = errors.New("server: drain deadline exceeded")
)

// Error is a failure that maps onto an HTTP response. Content is the body a
// handler would send; the ErrorClassifier normally replaces it.
type Error struct {
	Status  int
	Content string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Content, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Content)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrBadRequest wraps a request decoding failure as a 400.
func ErrBadRequest(cause error) *Error {
	return &Error{Status: http.StatusBadRequest, Content: "bad request", Err: cause}
}

// ErrInternal is the generic server-side failure.
var ErrInternal = &Error{Status: http.StatusInternalServerError, Content: "error occurred"}

// asError converts any error to an *Error, defaulting to ErrInternal.
func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Status: ErrInternal.Status, Content: ErrInternal.Content, Err: err}
}

package service

import (
	"errors"
	"fmt"
)

var (
	ErrIDRequired = errors.New("id is required")
	// ErrNotFound covers unknown ids and catalog rows whose bytes are missing from storage.
	ErrNotFound = errors.New("file not found")
	// ErrUpstreamUnavailable means the content store could not be reached or answered with a server error.
	ErrUpstreamUnavailable = errors.New("content store unavailable")
	// ErrUpstreamTimeout means the content store did not answer in time. It also matches ErrUpstreamUnavailable.
	ErrUpstreamTimeout = errors.New("content store timed out")
	// ErrInvalidEncoding is returned when an eligible file is not valid UTF-8. It is never cached.
	ErrInvalidEncoding = errors.New("file content is not valid UTF-8")
)

// UpstreamError describes a failed call to the content store.
type UpstreamError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *UpstreamError) Error() string {
	kind := "unavailable"
	if e.Timeout {
		kind = "timed out"
	}
	if e.Err == nil {
		return fmt.Sprintf("content store %s: %s", kind, e.Op)
	}
	return fmt.Sprintf("content store %s: %s: %v", kind, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrUpstreamUnavailable:
		return true
	case ErrUpstreamTimeout:
		return e.Timeout
	}
	return false
}

package entities

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRevisionNotFound is returned when a revision cannot be resolved in the project repository.
	ErrRevisionNotFound = errors.New("revision not found")

	// ErrLockfileNotFound is returned when the lockfile does not exist at the requested revision.
	ErrLockfileNotFound = errors.New("lockfile not found")

	// ErrUnsupportedLockfile is returned for lockfile names no parser understands.
	ErrUnsupportedLockfile = errors.New("unsupported lockfile format")

	// ErrRepositoryNotResolved is returned when a package cannot be mapped to a source repository.
	ErrRepositoryNotResolved = errors.New("source repository not resolved")

	// ErrProviderNotFound is returned when no registered provider handles a source repository.
	ErrProviderNotFound = errors.New("no provider for source repository")

	// ErrNoPackageMatched is returned when the package filter matches no package of either snapshot.
	ErrNoPackageMatched = errors.New("no package matches the filter")

	// ErrUnauthorized is returned when the source host rejects the credentials.
	ErrUnauthorized = errors.New("unauthorized")
)

// RateLimitError is returned by providers when the source host refuses a
// request because the caller ran out of budget.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter.Round(time.Second), e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// SourceHostError is returned by providers when the source host fails to
// serve a request (HTTP 5xx).
type SourceHostError struct {
	StatusCode int
	Err        error
}

func (e *SourceHostError) Error() string {
	return fmt.Sprintf("source host answered HTTP %d: %v", e.StatusCode, e.Err)
}

func (e *SourceHostError) Unwrap() error { return e.Err }

// AsRateLimitError unwraps a RateLimitError from err.
func AsRateLimitError(err error) (*RateLimitError, bool) {
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return rateErr, true
	}
	return nil, false
}

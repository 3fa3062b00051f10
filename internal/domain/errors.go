package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("business not found")

// NotFoundError means the provider has no matching business or returned no
// detail payload. Not retried.
type NotFoundError struct {
	Op     string
	Detail string
}

func (e *NotFoundError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Op, ErrNotFound)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, ErrNotFound, e.Detail)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ProviderError is a logical error the provider reported in-band on an
// otherwise successful response.
type ProviderError struct {
	Op      string
	Status  string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("%s: provider error: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: provider error (%s): %s", e.Op, e.Status, e.Message)
}

// TransportError covers everything that kept us from getting a usable
// response: network failures, timeouts, non-2xx statuses, undecodable bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: transport: %v", e.Op, e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

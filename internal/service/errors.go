package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited is returned when the endpoint keeps throttling after all retries.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrEmptyResponse is returned when the endpoint produced no usable text.
	ErrEmptyResponse = errors.New("empty response")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// RateLimitError reports that the endpoint answered 429.
type RateLimitError struct {
	// Err is the transport error that carried the 429.
	Err error
}

func (e *RateLimitError) Error() string {
	if e.Err == nil {
		return ErrRateLimited.Error()
	}
	return fmt.Sprintf("%s: %v", ErrRateLimited, e.Err)
}

// Unwrap exposes both ErrRateLimited and the underlying transport error.
func (e *RateLimitError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRateLimited}
	}
	return []error{ErrRateLimited, e.Err}
}

// EmptyResponseError reports a successful endpoint call with no generated text.
type EmptyResponseError struct {
	Message string
}

func (e *EmptyResponseError) Error() string {
	if e.Message == "" {
		return ErrEmptyResponse.Error()
	}
	return e.Message
}

// Unwrap lets errors.Is match ErrEmptyResponse.
func (e *EmptyResponseError) Unwrap() error {
	return ErrEmptyResponse
}

// IsTransient reports whether err is worth retrying against the endpoint.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrEmptyResponse)
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

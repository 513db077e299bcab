package api

import (
	"encoding/json"
	"fmt"

	"github.com/amidaware/schedctl/shared"
)

// Error is the single human readable failure every API call collapses to.
// Status is 0 when the request never got a response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// ErrorMessage extracts the message the backend put in a failed response.
// It prefers "error", then "message", and falls back to the status code when
// the body is not JSON or carries neither field. A field of the wrong type is
// skipped, the other one is still used.
func ErrorMessage(status int, body []byte) string {
	var eb shared.ErrorBody
	_ = json.Unmarshal(body, &eb)
	if eb.Error != "" {
		return eb.Error
	}
	if eb.Message != "" {
		return eb.Message
	}
	return fmt.Sprintf("HTTP error! status: %d", status)
}

// Empty is the value of results that carry nothing but success
type Empty struct{}

// Result is either Ok(value) or Err(message)
type Result[T any] struct {
	value T
	err   *Error
}

func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

func Err[T any](err error) Result[T] {
	if e, ok := err.(*Error); ok {
		return Result[T]{err: e}
	}
	return Result[T]{err: &Error{Message: err.Error()}}
}

func (r Result[T]) Ok() bool {
	return r.err == nil
}

func (r Result[T]) Value() T {
	return r.value
}

// Err returns nil on success so callers can write `if err := res.Err(); err != nil`
func (r Result[T]) Err() error {
	if r.err == nil {
		return nil
	}
	return r.err
}

func (r Result[T]) Message() string {
	if r.err == nil {
		return ""
	}
	return r.err.Message
}

func (r Result[T]) Status() int {
	if r.err == nil {
		return 0
	}
	return r.err.Status
}

func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.Err()
}

// Package permanent tags delivery failures that retrying cannot fix,
// such as rejected payloads or misconfigured endpoints.
package permanent

import "errors"

type permanentError struct {
	cause error
}

func (e *permanentError) Error() string {
	if e.cause == nil {
		return "permanent failure"
	}
	return e.cause.Error()
}

func (e *permanentError) Unwrap() error {
	return e.cause
}

// Mark wraps an error so retry loops give up on it immediately.
// Params: source error.
// Returns: marked error, nil input stays nil.
func Mark(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{cause: err}
}

// Is reports whether the error carries the non-retryable marker.
// Params: candidate error chain.
// Returns: true when Mark wrapped any link of the chain.
func Is(err error) bool {
	var marked *permanentError
	return errors.As(err, &marked)
}

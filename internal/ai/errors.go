package ai

import (
	"errors"
	"fmt"
	"time"

	"github.com/spigell/resume-ranker/internal/models"
)

// ConnectionError means the backend could not be reached or failed the request
// at the transport level.
type ConnectionError struct {
	Backend string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s backend unreachable: %v", e.Backend, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Kind() models.ErrorKind { return models.KindConnection }

// TimeoutError means a single call exceeded its deadline.
type TimeoutError struct {
	Backend string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("%s backend did not answer within %s: %v", e.Backend, e.Timeout, e.Err)
	}
	return fmt.Sprintf("%s backend call timed out: %v", e.Backend, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

func (e *TimeoutError) Kind() models.ErrorKind { return models.KindTimeout }

// ModelNotFoundError means the backend does not know the requested model.
// Retrying cannot fix it.
type ModelNotFoundError struct {
	Backend string
	Model   string
	Err     error
}

func (e *ModelNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model %q not found on %s backend: %v", e.Model, e.Backend, e.Err)
	}
	return fmt.Sprintf("model %q not found on %s backend", e.Model, e.Backend)
}

func (e *ModelNotFoundError) Unwrap() error { return e.Err }

func (e *ModelNotFoundError) Kind() models.ErrorKind { return models.KindModelNotFound }

// IsTransient reports whether err is a connection or timeout failure.
func IsTransient(err error) bool {
	var conn *ConnectionError
	var timeout *TimeoutError
	return errors.As(err, &conn) || errors.As(err, &timeout)
}

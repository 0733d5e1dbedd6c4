package orchestrator

import (
	"fmt"

	"github.com/spigell/resume-ranker/internal/models"
)

// ExtractionError is returned when job requirements could not be extracted.
// No candidate is evaluated in that case.
type ExtractionError struct {
	Failure models.FailureRecord
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting job requirements failed after %d attempt(s) (%s): %v", e.Failure.Attempts, e.Failure.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Kind() models.ErrorKind { return e.Failure.Kind }

// AbortedError is returned when the batch stopped before every candidate was
// evaluated. The report is still returned alongside it.
type AbortedError struct {
	Cause error
}

func (e *AbortedError) Error() string { return fmt.Sprintf("batch aborted: %v", e.Cause) }

func (e *AbortedError) Unwrap() error { return e.Cause }

type modelUnavailableError struct {
	model   string
	message string
}

func (e *modelUnavailableError) Error() string {
	return fmt.Sprintf("model %q is not available: %s", e.model, e.message)
}

func (e *modelUnavailableError) Kind() models.ErrorKind { return models.KindModelNotFound }

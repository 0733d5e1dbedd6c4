package response

import (
	"fmt"
	"strings"

	"github.com/spigell/resume-ranker/internal/models"
	"github.com/spigell/resume-ranker/internal/utils"
)

const previewLength = 80

// NoJSONFoundError means the raw text holds no balanced JSON object.
type NoJSONFoundError struct {
	Raw string
}

func (e *NoJSONFoundError) Error() string {
	return fmt.Sprintf("no JSON object found in model output %q", utils.TruncateForLog(e.Raw, previewLength))
}

func (e *NoJSONFoundError) Kind() models.ErrorKind { return models.KindNoJSONFound }

// MalformedJSONError means a brace-delimited region was found but did not decode.
type MalformedJSONError struct {
	Fragment string
	Err      error
}

func (e *MalformedJSONError) Error() string {
	return fmt.Sprintf("malformed JSON %q: %v", utils.TruncateForLog(e.Fragment, previewLength), e.Err)
}

func (e *MalformedJSONError) Unwrap() error { return e.Err }

func (e *MalformedJSONError) Kind() models.ErrorKind { return models.KindMalformedJSON }

// SchemaViolationError lists fields that are missing or carry the wrong type.
type SchemaViolationError struct {
	Schema  string
	Fields  []string
	Details []string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("%s does not match schema: fields [%s]: %s",
		e.Schema, strings.Join(e.Fields, ", "), strings.Join(e.Details, "; "))
}

func (e *SchemaViolationError) Kind() models.ErrorKind { return models.KindSchemaViolation }

// ValueDomainError lists fields whose values are outside the permitted set.
type ValueDomainError struct {
	Schema  string
	Fields  []string
	Details []string
}

func (e *ValueDomainError) Error() string {
	return fmt.Sprintf("%s has values outside the permitted domain: fields [%s]: %s",
		e.Schema, strings.Join(e.Fields, ", "), strings.Join(e.Details, "; "))
}

func (e *ValueDomainError) Kind() models.ErrorKind { return models.KindValueDomain }

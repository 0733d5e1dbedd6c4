package models

import "errors"

// ErrorKind classifies why a model call or its response was rejected.
type ErrorKind string

const (
	KindConnection              ErrorKind = "connection"
	KindTimeout                 ErrorKind = "timeout"
	KindModelNotFound           ErrorKind = "model_not_found"
	KindNoJSONFound             ErrorKind = "no_json_found"
	KindMalformedJSON           ErrorKind = "malformed_json"
	KindSchemaViolation         ErrorKind = "schema_violation"
	KindValueDomain             ErrorKind = "value_domain"
	KindCanceled                ErrorKind = "canceled"
	KindRequirementsUnavailable ErrorKind = "requirements_unavailable"
	KindUnknown                 ErrorKind = "unknown"
)

// Retryable reports whether another attempt may succeed.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindConnection, KindTimeout,
		KindNoJSONFound, KindMalformedJSON, KindSchemaViolation, KindValueDomain:
		return true
	default:
		return false
	}
}

// Kinded is implemented by every typed error in the taxonomy.
type Kinded interface {
	error
	Kind() ErrorKind
}

// KindOf returns the kind of the first typed error in err's chain.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var k Kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

package zenodo

import (
	"errors"
	"fmt"
	"strings"
)

const msgFieldRequired = "field required"

var (
	// ErrRateLimited is returned when Zenodo answers with HTTP 429. It is not
	// retried.
	ErrRateLimited = errors.New("rate limited by Zenodo")
	// ErrAuth is returned for HTTP 401 and 403 responses.
	ErrAuth = errors.New("authentication with Zenodo failed")
)

// FieldError is a single validation problem.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (fe FieldError) String() string {
	return fmt.Sprintf("Field %s: %s", fe.Field, fe.Message)
}

// ValidationError collects every invalid field of a metadata record.
type ValidationError struct {
	Fields []FieldError
}

// Add records a problem with a field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Empty reports whether no problems were recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Has reports whether a problem was recorded for the field.
func (e *ValidationError) Has(field string) bool {
	if e == nil {
		return false
	}
	for _, fe := range e.Fields {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for idx, fe := range e.Fields {
		msgs[idx] = fe.String()
	}
	return fmt.Sprintf("invalid Zenodo metadata: %s", strings.Join(msgs, "; "))
}

// APIError is a non-success response of the Zenodo API other than rate
// limiting and authentication failures.
type APIError struct {
	StatusCode int
	Message    string
	// Errors holds the per-field errors Zenodo reports for invalid metadata.
	Errors []FieldError
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("Zenodo API error (HTTP %d)", e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	for _, fe := range e.Errors {
		msg += "\n" + fe.String()
	}
	return msg
}

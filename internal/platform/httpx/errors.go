package httpx

import (
	"errors"
	"fmt"
)

// FieldErrors maps a field name to the list of human-readable rule
// violations for that field.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

func (fe FieldErrors) Empty() bool { return len(fe) == 0 }

// ValidationError carries a field->messages map for caller-correctable
// input errors. It maps to a 422 response.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// NewValidationError wraps a non-empty FieldErrors map.
func NewValidationError(fields FieldErrors) *ValidationError {
	return &ValidationError{Fields: fields}
}

// ErrNotFound covers both "the row does not exist" and "the row belongs to
// another doctor". Callers must not be able to tell the two apart.
var ErrNotFound = errors.New("resource not found")

// ErrInternal is returned to callers in place of any unexpected failure.
// The underlying cause is logged server-side, never serialized to the client.
var ErrInternal = errors.New("internal error")

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AsValidation returns the ValidationError wrapped in err, if any.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

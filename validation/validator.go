package validation

import (
	"strings"

	"github.com/kbukum/commander/errors"
)

// Validator collects programmatic validation failures.
type Validator struct {
	fields []FieldError
}

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{}
}

// Check records a failure when ok is false.
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.fields = append(v.fields, FieldError{Field: field, Message: message})
	}
}

// Valid reports whether no failures were recorded.
func (v *Validator) Valid() bool {
	return len(v.fields) == 0
}

// Fields returns the recorded failures.
func (v *Validator) Fields() []FieldError {
	return v.fields
}

// Error returns an INVALID_COMMAND AppError summarizing the failures,
// or nil when everything checked out.
func (v *Validator) Error() error {
	if v.Valid() {
		return nil
	}
	messages := make([]string, 0, len(v.fields))
	for _, f := range v.fields {
		messages = append(messages, f.Field+": "+f.Message)
	}
	return errors.InvalidCommand(strings.Join(messages, "; ")).
		WithDetail("fields", v.fields)
}

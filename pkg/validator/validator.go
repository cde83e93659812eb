package validator

import (
	"strings"

	"github.com/google/uuid"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var msgs []string
	for _, e := range v {
		msgs = append(msgs, e.Field+": "+e.Message)
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any errors
func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

// Add adds a validation error
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// UserID parses value as a user id and records a field error if it is not one.
// The nil UUID is rejected.
func (v *ValidationErrors) UserID(field, value string) uuid.UUID {
	value = strings.TrimSpace(value)
	if value == "" {
		v.Add(field, "is required")
		return uuid.Nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		v.Add(field, "must be a valid id")
		return uuid.Nil
	}
	if id == uuid.Nil {
		v.Add(field, "must not be the nil id")
		return uuid.Nil
	}
	return id
}

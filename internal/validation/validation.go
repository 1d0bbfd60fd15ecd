// Package validation carries field-level input errors from the domain packages to
// the HTTP layer.
package validation

import (
	"errors"
	"strings"
)

// Error lists every field that failed validation.
type Error struct {
	Message string
	Fields  []string
}

// New returns an *Error for the given fields. It returns nil when fields is empty so
// callers can write `if err := validation.New(...); err != nil`.
func New(message string, fields ...string) *Error {
	if len(fields) == 0 {
		return nil
	}
	return &Error{Message: message, Fields: fields}
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

// As unwraps err into a validation error.
func As(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Blank reports whether s is empty after trimming whitespace.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

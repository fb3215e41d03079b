package service

import (
	"errors"
	"fmt"
)

// Structural error codes. A structural error aborts validation for the whole
// file before any per-row work happens.
const (
	StructuralUnreadableFile = "unreadable_file"
	StructuralMissingHeader  = "missing_header"
	StructuralEmptyFile      = "empty_file"
	StructuralTooManyRows    = "too_many_rows"
)

// StructuralError reports a file-level defect: an unreadable workbook,
// missing required columns, or an empty data region.
type StructuralError struct {
	Code    string
	Message string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewStructuralError(code, message string) *StructuralError {
	return &StructuralError{Code: code, Message: message}
}

// IsStructural reports whether err is a file-level validation failure, as
// opposed to an infrastructure error.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// Session state errors.
var (
	ErrSessionNotFound     = errors.New("import session not found")
	ErrSessionNotValidated = errors.New("import session has not been validated")
	ErrSessionConsumed     = errors.New("import session already committed or canceled")
	ErrNoValidRows         = errors.New("no valid rows to commit")
)

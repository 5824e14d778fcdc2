package usecase

import (
	"errors"
	"strings"
)

const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeEmailConflict = "EMAIL_CONFLICT"
	CodeDatabase      = "DATABASE_ERROR"
	CodeModel         = "MODEL_ERROR"
	CodeExport        = "EXPORT_ERROR"
)

// DomainError is a caller-visible failure: bad input, a missing record or a conflict.
type DomainError struct {
	Code    string
	Message string
	Fields  []ValidationError
	Err     error
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError is an internal failure. Its message is for logs, never for clients.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func NewValidationError(fields []ValidationError) *DomainError {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Field+" ("+f.Message+")")
	}
	return &DomainError{
		Code:    CodeValidation,
		Message: "validation failed: " + strings.Join(parts, ", "),
		Fields:  fields,
	}
}

// NewModelError wraps a failure of the language model layer.
func NewModelError(message string, err error) *TechnicalError {
	return &TechnicalError{Code: CodeModel, Message: message, Err: err}
}

func newNotFoundError(err error) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: "not found", Err: err}
}

func newConflictError(err error) *DomainError {
	return &DomainError{Code: CodeEmailConflict, Message: "A lead with this email already exists.", Err: err}
}

func newDatabaseError(op string, err error) *TechnicalError {
	return &TechnicalError{Code: CodeDatabase, Message: "failed to " + op, Err: err}
}

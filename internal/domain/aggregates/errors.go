package aggregates

import (
	"errors"
	"strings"
)

// ErrorCode is the failure class every aggregate operation reports.
type ErrorCode string

const (
	// CodeValidation is a recoverable input problem shown to the end user.
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeConflict           ErrorCode = "conflict"
	CodeInvariantViolation ErrorCode = "invariant_violation"
	CodeRetryable          ErrorCode = "retryable"
	// CodeInternal covers contract violations by the caller and infrastructure failures.
	CodeInternal ErrorCode = "internal"
)

// FieldError names the input field a validation failure belongs to.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Fields  []FieldError
	Cause   error
}

// Error renders "op: message [code]", with field messages standing in for an
// empty message.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
	}
	msg := e.Message
	if msg == "" {
		for i, f := range e.Fields {
			if i > 0 {
				msg += "; "
			}
			msg += f.Field + ": " + f.Message
		}
	}
	if msg != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(msg)
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString("[" + string(e.Code) + "]")
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error carrying the same code and no op, so callers can
// write errors.Is(err, &Error{Code: CodeNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Op == "" && t.Message == "" && t.Code == e.Code
}

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{Code: code, Op: strings.TrimSpace(op), Message: strings.TrimSpace(message), Cause: cause}
}

// NewValidationError builds a validation error carrying per-field messages.
func NewValidationError(op string, fields ...FieldError) error {
	return &Error{Code: CodeValidation, Op: strings.TrimSpace(op), Fields: fields}
}

// Wrap gives err a code and op, keeping it as the cause.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// CodeOf returns the outermost aggregate code in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var aggErr *Error
	if errors.As(err, &aggErr) {
		return aggErr.Code
	}
	return ""
}

// FieldsOf returns the field-level validation messages carried by err.
func FieldsOf(err error) []FieldError {
	var aggErr *Error
	if errors.As(err, &aggErr) {
		return aggErr.Fields
	}
	return nil
}

// IsRecoverable reports whether the error is meant for an end user rather
// than treated as a caller bug.
func IsRecoverable(err error) bool {
	switch CodeOf(err) {
	case CodeValidation, CodeNotFound, CodeConflict:
		return true
	}
	return false
}

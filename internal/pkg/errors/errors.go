package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotAssessable is returned when a mark targets an outcome that cannot be graded.
	ErrNotAssessable = errors.New("outcome is not assessable")
	// ErrEmptyConditions guards deletes that would otherwise match every row.
	ErrEmptyConditions = errors.New("delete conditions must not be empty")
)

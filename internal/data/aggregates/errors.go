package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/outcomes-backend/internal/domain/aggregates"
	pkgerrors "github.com/yungbote/outcomes-backend/internal/pkg/errors"
)

// ErrContract marks a caller breaking an API precondition.
var ErrContract = errors.New("aggregate contract violation")

// ContractError tags a programmer error. It maps to CodeInternal and is never
// shown to end users.
func ContractError(msg string, cause error) error {
	return errors.Join(ErrContract, errors.New(strings.TrimSpace(msg)), cause)
}

var sentinelCodes = []struct {
	target error
	code   domainagg.ErrorCode
}{
	{pkgerrors.ErrInvalidArgument, domainagg.CodeValidation},
	{gorm.ErrRecordNotFound, domainagg.CodeNotFound},
	{pkgerrors.ErrNotFound, domainagg.CodeNotFound},
	{ErrContract, domainagg.CodeInternal},
	{pkgerrors.ErrNotAssessable, domainagg.CodeInternal},
	{pkgerrors.ErrEmptyConditions, domainagg.CodeInternal},
	{context.Canceled, domainagg.CodeRetryable},
	{context.DeadlineExceeded, domainagg.CodeRetryable},
}

var postgresCodes = map[string]domainagg.ErrorCode{
	"23505": domainagg.CodeConflict,           // unique_violation
	"23503": domainagg.CodeInvariantViolation, // foreign_key_violation
	"40001": domainagg.CodeRetryable,          // serialization_failure
	"40P01": domainagg.CodeRetryable,          // deadlock_detected
	"55P03": domainagg.CodeRetryable,          // lock_not_available
}

// Driver messages for backends without typed errors (sqlite). Order matters.
var messageCodes = []struct {
	fragment string
	code     domainagg.ErrorCode
}{
	{"unique constraint failed", domainagg.CodeConflict},
	{"duplicate key", domainagg.CodeConflict},
	{"foreign key constraint failed", domainagg.CodeInvariantViolation},
	{"database is locked", domainagg.CodeRetryable},
	{"deadlock", domainagg.CodeRetryable},
	{"serialization", domainagg.CodeRetryable},
	{"timeout", domainagg.CodeRetryable},
}

// MapError gives err a domain error code, tagged with op. Errors that already
// are *domainagg.Error pass through untouched.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*domainagg.Error); ok {
		return err
	}
	return domainagg.Wrap(classify(err), op, err)
}

func classify(err error) domainagg.ErrorCode {
	for _, s := range sentinelCodes {
		if errors.Is(err, s.target) {
			return s.code
		}
	}
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) {
		return aggErr.Code
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if code, ok := postgresCodes[pgErr.Code]; ok {
			return code
		}
	}
	msg := strings.ToLower(err.Error())
	for _, m := range messageCodes {
		if strings.Contains(msg, m.fragment) {
			return m.code
		}
	}
	return domainagg.CodeInternal
}

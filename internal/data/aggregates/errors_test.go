package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/outcomes-backend/internal/domain/aggregates"
	pkgerrors "github.com/yungbote/outcomes-backend/internal/pkg/errors"
)

func TestMapErrorCodes(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want domainagg.ErrorCode
	}{
		{"bad argument", fmt.Errorf("parse filter: %w", pkgerrors.ErrInvalidArgument), domainagg.CodeValidation},
		{"gorm miss", gorm.ErrRecordNotFound, domainagg.CodeNotFound},
		{"contract", ContractError("encode filter predicates", errors.New("json")), domainagg.CodeInternal},
		{"not assessable", pkgerrors.ErrNotAssessable, domainagg.CodeInternal},
		{"canceled", context.Canceled, domainagg.CodeRetryable},
		{"pg unique", &pgconn.PgError{Code: "23505"}, domainagg.CodeConflict},
		{"pg fk", &pgconn.PgError{Code: "23503"}, domainagg.CodeInvariantViolation},
		{"pg lock timeout", &pgconn.PgError{Code: "55P03"}, domainagg.CodeRetryable},
		{"pg other", &pgconn.PgError{Code: "22001"}, domainagg.CodeInternal},
		{"sqlite unique", errors.New("UNIQUE constraint failed: outcome.idnumber"), domainagg.CodeConflict},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), domainagg.CodeRetryable},
		{"wrapped aggregate", fmt.Errorf("save: %w", domainagg.NewError(domainagg.CodeValidation, "inner", "bad", nil)), domainagg.CodeValidation},
		{"unknown", errors.New("disk full"), domainagg.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := MapError("Outcomes.Test", tc.in)
			if got := domainagg.CodeOf(err); got != tc.want {
				t.Fatalf("code: want=%s got=%s (%v)", tc.want, got, err)
			}
			if !errors.Is(err, tc.in) {
				t.Fatalf("mapped error lost its cause: %v", err)
			}
		})
	}
}

func TestMapErrorPassesAggregateErrorsThrough(t *testing.T) {
	if MapError("op", nil) != nil {
		t.Fatalf("nil: want nil")
	}
	in := domainagg.NewValidationError("Outcomes.Taxonomy.SaveOutcome", domainagg.FieldError{Field: "shortname", Message: "required"})
	if out := MapError("other", in); out != in {
		t.Fatalf("passthrough: want same error got=%v", out)
	}
}

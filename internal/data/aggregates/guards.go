package aggregates

import (
	"fmt"
	"strings"

	types "github.com/yungbote/outcomes-backend/internal/domain"
	domainagg "github.com/yungbote/outcomes-backend/internal/domain/aggregates"
	pkgerrors "github.com/yungbote/outcomes-backend/internal/pkg/errors"
)

// RequireFound converts a missing row into a typed not-found error.
func RequireFound(op string, found bool, what string, id uint) error {
	if found {
		return nil
	}
	return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("%s not found: %d", strings.TrimSpace(what), id), pkgerrors.ErrNotFound)
}

// RequireAssessable rejects marking outcomes that cannot be graded.
func RequireAssessable(op string, o *types.Outcome) error {
	if o == nil {
		return domainagg.NewError(domainagg.CodeNotFound, op, "outcome not found", pkgerrors.ErrNotFound)
	}
	if !o.Assessable {
		return domainagg.NewError(domainagg.CodeInternal, op,
			fmt.Sprintf("outcome %d is not assessable", o.ID), pkgerrors.ErrNotAssessable)
	}
	return nil
}

// RequireConditions refuses deletes keyed on zero ids, which would match too broadly.
func RequireConditions(op string, ids ...uint) error {
	if len(ids) == 0 {
		return domainagg.NewError(domainagg.CodeInternal, op, "no delete conditions", pkgerrors.ErrEmptyConditions)
	}
	for _, id := range ids {
		if id == 0 {
			return domainagg.NewError(domainagg.CodeInternal, op, "zero id in delete conditions", pkgerrors.ErrEmptyConditions)
		}
	}
	return nil
}

// RequireAreaKey validates an area identifier.
func RequireAreaKey(op string, key types.AreaKey) error {
	var fields []domainagg.FieldError
	if strings.TrimSpace(key.Component) == "" {
		fields = append(fields, domainagg.FieldError{Field: "component", Message: "required"})
	}
	if strings.TrimSpace(key.Area) == "" {
		fields = append(fields, domainagg.FieldError{Field: "area", Message: "required"})
	}
	if len(fields) > 0 {
		return domainagg.NewValidationError(op, fields...)
	}
	return nil
}

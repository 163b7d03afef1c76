package aggregates

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainagg "github.com/yungbote/outcomes-backend/internal/domain/aggregates"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return v
}

// structFieldErrors runs the struct validators and returns one FieldError per
// failed rule, field names prefixed with prefix.
func structFieldErrors(prefix string, v any) ([]domainagg.FieldError, error) {
	err := validate.Struct(v)
	if err == nil {
		return nil, nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil, err
	}
	out := make([]domainagg.FieldError, 0, len(ve))
	for _, fe := range ve {
		out = append(out, domainagg.FieldError{Field: prefix + fe.Field(), Message: ruleMessage(fe)})
	}
	return out, nil
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return "failed " + fe.Tag()
}

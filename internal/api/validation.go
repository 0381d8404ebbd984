package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pageza/foodgram/backend/internal/types"
)

// Validator checks request DTOs and reports problems keyed by JSON field.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &Validator{v: v}
}

// Validate returns nil when s passes, otherwise the field errors. Any other
// failure is reported under non_field_errors.
func (v *Validator) Validate(s any) types.FieldErrors {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return types.FieldErrors{"non_field_errors": {err.Error()}}
	}

	out := make(types.FieldErrors, len(validationErrs))
	for _, e := range validationErrs {
		out[e.Field()] = append(out[e.Field()], friendlyMessage(e))
	}
	return out
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "min":
		return fmt.Sprintf("ensure this field has at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("ensure this field has no more than %s characters", e.Param())
	case "gte":
		return "ensure this value is greater than or equal to " + e.Param()
	case "lte":
		return "ensure this value is less than or equal to " + e.Param()
	default:
		return "invalid value"
	}
}

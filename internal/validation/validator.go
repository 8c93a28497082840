// Package validation wraps validator/v10 and converts failures into domain
// validation errors keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/mimirswell/mimirswell-server/internal/errors"
)

var clockTime = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with the custom tags used by service inputs.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// hhmm accepts a 24-hour "HH:MM" reminder time.
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return clockTime.MatchString(fl.Field().String())
	})
	// libstatus accepts saved, reading or completed.
	_ = v.RegisterValidation("libstatus", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "saved", "reading", "completed":
			return true
		}
		return false
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	names := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = friendlyMessage(e)
		names = append(names, e.Field())
	}

	msg := "invalid " + strings.Join(names, ", ")
	return domainerrors.ValidationWithDetails(msg, fieldErrors)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		}
		return "must not exceed " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "hhmm":
		return "must be a time in HH:MM format"
	case "libstatus":
		return "must be one of: saved reading completed"
	default:
		return "is invalid"
	}
}

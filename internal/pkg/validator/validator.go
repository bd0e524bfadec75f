package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pratik-mahalle/adminservice/internal/domain/alert"
	"github.com/pratik-mahalle/adminservice/internal/domain/user"
)

// enums are domain value sets usable as named tags, e.g.
// `validate:"omitempty,alert_severity"`.
var enums = map[string][]string{
	"alert_type":     alert.Types,
	"alert_severity": alert.Severities,
	"alert_status":   alert.Statuses,
	"user_type":      user.Types,
}

// Validator wraps go-playground validator with the service's enum tags
type Validator struct {
	validate *validator.Validate
}

// ValidationError describes one rejected field, keyed by its JSON name
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// New creates a validator that reports JSON field names and knows the
// domain enum tags.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for tag, allowed := range enums {
		set := make(map[string]struct{}, len(allowed))
		for _, a := range allowed {
			set[a] = struct{}{}
		}
		// Only an empty tag or nil func fails registration
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			_, ok := set[fl.Field().String()]
			return ok
		})
	}

	return &Validator{validate: v}
}

// Validate checks a struct and returns one entry per failed field. A
// non-struct argument yields a single entry instead of a panic.
func (v *Validator) Validate(i interface{}) []ValidationError {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{Tag: "struct", Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: msgForTag(fe),
		})
	}
	return out
}

// msgForTag returns a human-readable message for a failed tag
func msgForTag(fe validator.FieldError) string {
	field := fe.Field()
	if allowed, ok := enums[fe.Tag()]; ok {
		return fmt.Sprintf("%s must be one of [%s]", field, strings.Join(allowed, " "))
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "ne":
		return fmt.Sprintf("%s must not be %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must match the format %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation for tag: %s", field, fe.Tag())
	}
}

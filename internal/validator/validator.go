package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a business validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Fields groups messages by field name for the error envelope
func (ve ValidationErrors) Fields() map[string][]string {
	out := make(map[string][]string, len(ve))
	for _, e := range ve {
		out[e.Field] = append(out[e.Field], e.Message)
	}
	return out
}

// Validator validates request DTOs against struct tags and the business rules
type Validator struct {
	business *BusinessValidator
}

func New() *Validator {
	return &Validator{business: NewBusinessValidator()}
}

// Validate returns ValidationErrors, or nil when s is valid
func (v *Validator) Validate(s interface{}) error {
	if errs := v.business.Validate(s); len(errs) > 0 {
		return errs
	}
	return nil
}

// ToValidationErrors converts validator/v10 errors, keyed by json field name
func ToValidationErrors(err error) ValidationErrors {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return ValidationErrors{{Field: "body", Message: err.Error(), Rule: "invalid"}}
	}

	out := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		out = append(out, ValidationError{
			Field:   fieldPath(fe),
			Message: errorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func jsonTagName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	}
	return name
}

func errorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required."
	case "min":
		if err.Kind() == reflect.String || err.Kind() == reflect.Slice {
			return fmt.Sprintf("Ensure this field has at least %s characters.", err.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", err.Param())
	case "max":
		if err.Kind() == reflect.String || err.Kind() == reflect.Slice {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", err.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", err.Param())
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "digits":
		return "Must contain only digits."
	case "future_date":
		return "Must be in the future."
	case "user_role", "difficulty_level", "content_type", "enrollment_status", "assessment_type",
		"question_type", "certificate_type", "discussion_category", "application_status", "job_type",
		"gender", "education_level", "language_preference", "peer_session_status":
		return fmt.Sprintf("\"%v\" is not a valid choice.", err.Value())
	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}

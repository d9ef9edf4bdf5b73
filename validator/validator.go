// Package validator validates user input locally, before any request is
// built, so obviously bad input never costs a network round trip.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/arnaud-devs/hangart-sub000/errors"
)

// cmMSISDNPattern matches Cameroonian mobile numbers in the formats the
// payment providers accept: an optional +237 or 237 prefix followed by a
// 9-digit subscriber number starting with 6.
var cmMSISDNPattern = regexp.MustCompile(`^(?:\+?237)?6\d{8}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("cm_msisdn", func(fl validator.FieldLevel) bool {
		return cmMSISDNPattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate validates a struct using go-playground/validator tags. On
// failure it returns an *errors.AppError carrying per-field messages, so
// callers surface it directly without translation.
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make(map[string]string, len(validationErrors))
	var msgs []string
	for _, fe := range validationErrors {
		msg := msgForTag(fe)
		fields[fieldName(fe)] = msg
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", fieldName(fe), msg))
	}
	return apperrors.ValidationFields(strings.Join(msgs, "; "), fields)
}

func fieldName(fe validator.FieldError) string {
	return strings.ToLower(fe.Field())
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "cm_msisdn":
		return "must be a valid Cameroonian mobile number"
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

// ValidMSISDN reports whether the given string is an acceptable
// Cameroonian mobile money number.
func ValidMSISDN(phone string) bool {
	return cmMSISDNPattern.MatchString(phone)
}

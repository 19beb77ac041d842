package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is wrapped by every Error so callers can classify with errors.Is.
var ErrValidation = errors.New("validation failed")

// Error is a client-facing validation failure. Message is shown to the user verbatim.
type Error struct {
	Field   string
	Message string
}

func (e Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e Error) Unwrap() error {
	return ErrValidation
}

// New returns an Error for field with the given user-facing message.
func New(field, message string) error {
	return Error{Field: field, Message: message}
}

// MessageOf returns the user-facing message of a validation error, or "" if
// err is not one.
func MessageOf(err error) string {
	var verr Error
	if errors.As(err, &verr) {
		return verr.Message
	}
	return ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct runs struct-tag validation on v. The first failing field is reported
// with fallback as its message.
func Struct(v any, fallback string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate: %w", err)
	}
	first := fieldErrs[0]
	return Error{
		Field:   strings.ToLower(first.Field()),
		Message: fallback,
	}
}

// Var validates a single value against a validator tag such as "required,email".
func Var(value any, tag, field, message string) error {
	if err := validate.Var(value, tag); err != nil {
		return Error{Field: field, Message: message}
	}
	return nil
}

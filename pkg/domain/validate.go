package domain

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Messages shown inline when a form fails client-side validation.
const (
	MsgFillAllFields = "Please fill all fields"
	MsgInvalidEmail  = "Please enter a valid email address"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError is a form error caught before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks a payload's validate tags. A missing field wins over a
// malformed one so the user sees "fill all fields" first.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("domain.Validate: %w", err)
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return &ValidationError{Field: fe.Field(), Message: MsgFillAllFields}
		}
	}
	fe := fieldErrs[0]
	if fe.Tag() == "email" {
		return &ValidationError{Field: fe.Field(), Message: MsgInvalidEmail}
	}
	return &ValidationError{Field: fe.Field(), Message: fmt.Sprintf("%s is invalid", fe.Field())}
}

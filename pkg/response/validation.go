package response

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validationError describes a single invalid request field.
type validationError struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Issue string `json:"issue"`
}

// messageForTag returns a user-friendly message for a validation tag.
func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "This field is required."
	case "url":
		return "Invalid url."
	case "min":
		return "Value is too small."
	case "max":
		return "Value is too large."
	default:
		return "Invalid value."
	}
}

func getValidationErrors(err error) []validationError {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}

	validationErrs := make([]validationError, 0, len(errs))
	for _, e := range errs {
		validationErrs = append(validationErrs, validationError{
			Field: e.Field(),
			Value: fmt.Sprintf("%v", e.Value()),
			Issue: messageForTag(e.Tag()),
		})
	}

	return validationErrs
}

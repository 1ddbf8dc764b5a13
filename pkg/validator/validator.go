package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

func init() {
	// Register custom validation for UUID
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// ErrorMap flattens validation failures into a field -> reason map suitable
// for API responses. Field names are lowered to match the JSON contract.
func ErrorMap(errs []*ErrorResponse) map[string]string {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		field := e.FailedField
		if idx := strings.LastIndex(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		field = strings.ToLower(field[:1]) + field[1:]
		reason := fmt.Sprintf("failed on '%s'", e.Tag)
		if e.Value != "" {
			reason = fmt.Sprintf("failed on '%s=%s'", e.Tag, e.Value)
		}
		out[field] = reason
	}
	return out
}

package server

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type structValidator struct {
	validate *validator.Validate
}

func newValidator() *structValidator {
	v := validator.New()
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &structValidator{validate: v}
}

// Returns nil if s is valid, otherwise a message per failing field
func (v *structValidator) validateStruct(s interface{}) map[string]string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return map[string]string{"error": "internal validation error"}
	}

	messages := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			messages[field] = fmt.Sprintf("field '%s' is required", field)
		case "max":
			messages[field] = fmt.Sprintf("field '%s' is too long (max: %s)", field, fe.Param())
		default:
			messages[field] = fmt.Sprintf("field '%s' is not valid", field)
		}
	}
	return messages
}

package common

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared struct validator. Field names in errors come
// from the `label` tag, then the `form` tag, then the Go field name.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			if label := strings.TrimSpace(f.Tag.Get("label")); label != "" {
				return label
			}
			if name := strings.Split(f.Tag.Get("form"), ",")[0]; name != "" && name != "-" {
				return name
			}
			return f.Name
		})
	})
	return validate
}

// ValidateStruct runs the validator and converts failures into a
// ValidationError listing every invalid field in declaration order.
func ValidateStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.StructField(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", name)
	case "numeric":
		return fmt.Sprintf("%s must contain only digits", name)
	case "e164":
		return fmt.Sprintf("%s must be a phone number such as +919604513436", name)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", name)
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}

package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field" yaml:"field" xml:"field" bson:"field"`
	Code    string `json:"code" yaml:"code" xml:"code" bson:"code"`
	Message string `json:"message" yaml:"message" xml:"message" bson:"message"`
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]

		if name == "-" {
			return ""
		}

		return name
	})

	return &Validator{validate: v}
}

// Validate checks a struct against its validate tags. Field paths of
// nested values are reported relative to i, e.g. "slides[0].page".
func (v *Validator) Validate(i any) ([]ValidationError, bool) {
	if err := v.validate.Struct(i); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return []ValidationError{{Code: "INVALID", Message: err.Error()}}, false
		}
		result := make([]ValidationError, 0, len(validationErrors))

		for _, err := range validationErrors {
			var message string
			switch err.Tag() {
			case "required":
				message = fmt.Sprintf("%s is required", err.Field())
			case "min":
				message = fmt.Sprintf("%s must be at least %s%s", err.Field(), err.Param(), unit(err.Kind()))
			case "max":
				message = fmt.Sprintf("%s must not exceed %s%s", err.Field(), err.Param(), unit(err.Kind()))
			case "oneof":
				message = fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param())
			case "hostname_rfc1123", "ip":
				message = fmt.Sprintf("%s must be a valid host", err.Field())
			default:
				message = fmt.Sprintf("%s is invalid", err.Field())
			}

			result = append(result, ValidationError{
				Field:   err.Namespace()[strings.Index(err.Namespace(), ".")+1:],
				Code:    strings.ToUpper(err.Tag()),
				Message: message,
			})
		}

		return result, false
	}

	return nil, true
}

func unit(kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return " characters long"
	case reflect.Slice, reflect.Array, reflect.Map:
		return " items"
	default:
		return ""
	}
}

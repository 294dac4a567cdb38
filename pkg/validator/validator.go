package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var (
	validate = validator.New()
	phone10  = regexp.MustCompile(`^[0-9]{10}$`)
)

func init() {
	// Report json names so field errors line up with request bodies
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Register custom validation for UUID
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})

	// Phone numbers are exactly 10 digits
	validate.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return phone10.MatchString(fl.Field().String())
	})
}

// IsPhone10 reports whether s is a 10-digit phone number.
func IsPhone10(s string) bool {
	return phone10.MatchString(s)
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			var element ErrorResponse
			element.FailedField = err.Field()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// FieldErrors validates data and returns one message per failing field, or nil.
func FieldErrors(data interface{}) map[string]string {
	errs := ValidateStruct(data)
	if len(errs) == 0 {
		return nil
	}
	fields := make(map[string]string, len(errs))
	for _, e := range errs {
		if _, seen := fields[e.FailedField]; seen {
			continue
		}
		fields[e.FailedField] = message(e)
	}
	return fields
}

func message(e *ErrorResponse) string {
	switch e.Tag {
	case "required", "uuid_required":
		return "required"
	case "phone10":
		return "must be a 10-digit phone number"
	case "min":
		return "must be at least " + e.Value
	case "max":
		return "must be at most " + e.Value
	case "oneof":
		return "must be one of: " + e.Value
	case "numeric", "number":
		return "must be a number"
	case "email":
		return "must be a valid email"
	case "gte":
		return "must be greater than or equal to " + e.Value
	case "gt":
		return "must be greater than " + e.Value
	default:
		return "failed on '" + e.Tag + "'"
	}
}

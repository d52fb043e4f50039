package utils

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their form name so messages line up with inputs.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	v.RegisterValidation("mailformat", func(fl validator.FieldLevel) bool {
		return checkmail.ValidateFormat(fl.Field().String()) == nil
	})
	return v
}

// FieldErrors maps a form field name to its message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fe[k])
	}
	return strings.Join(msgs, " ")
}

// Add records a message for field unless one is already present.
func (fe FieldErrors) Add(field, message string) {
	if _, ok := fe[field]; !ok {
		fe[field] = message
	}
}

// ValidateStruct checks s against its validate tags. The result is empty
// when s is valid.
func ValidateStruct(s interface{}) FieldErrors {
	errs := FieldErrors{}

	err := validate.Struct(s)
	if err == nil {
		return errs
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add("_", "The form could not be validated.")
		return errs
	}

	for _, err := range verrs {
		field := err.Field()
		label := fieldLabel(field)
		param := err.Param()

		switch err.Tag() {
		case "required":
			errs.Add(field, label+" is required.")
		case "min":
			errs.Add(field, fmt.Sprintf("%s must be at least %s characters.", label, param))
		case "max":
			errs.Add(field, fmt.Sprintf("%s must be at most %s characters.", label, param))
		case "gte":
			errs.Add(field, fmt.Sprintf("%s must be at least %s.", label, param))
		case "lte":
			errs.Add(field, fmt.Sprintf("%s must be at most %s.", label, param))
		case "email", "mailformat":
			errs.Add(field, label+" must be a valid email address.")
		case "url":
			errs.Add(field, label+" must be a valid URL.")
		case "numeric":
			errs.Add(field, label+" must be a number.")
		case "datetime":
			errs.Add(field, label+" must be a valid date.")
		case "eqfield":
			errs.Add(field, label+" does not match.")
		case "oneof":
			errs.Add(field, label+" has an unsupported value.")
		default:
			errs.Add(field, label+" is invalid.")
		}
	}
	return errs
}

func fieldLabel(field string) string {
	field = strings.TrimSuffix(field, "_id")
	return humanizeCode(field)
}

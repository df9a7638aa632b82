// Package forms validates and submits the ticket and booking forms.
package forms

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a form field name to its inline error message.
type FieldErrors map[string]string

func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check runs struct validation and converts failures to messages using
// labels for display names.
func check(form any, labels map[string]string) FieldErrors {
	errs := FieldErrors{}
	err := validate.Struct(form)
	if err == nil {
		return errs
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add("form", "Invalid form")
		return errs
	}
	for _, fe := range verrs {
		field := fe.Field()
		if i := strings.IndexByte(field, '['); i >= 0 {
			field = field[:i]
		}
		label := labels[field]
		if label == "" {
			label = field
		}
		errs.Add(field, message(fe, label))
	}
	return errs
}

func message(fe validator.FieldError, label string) string {
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "numeric", "number":
		return label + " must be a number"
	case "oneof":
		return "Choose a valid " + strings.ToLower(label)
	case "datetime":
		return "Enter a valid date and time"
	case "url":
		return "Enter a valid URL"
	case "email":
		return "Enter a valid email address"
	case "nefield":
		return "From and To must differ"
	}
	return label + " is invalid"
}

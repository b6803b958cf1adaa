// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// fieldRefTag validates mapping field references such as "names.first_name".
const fieldRefTag = "fieldref"

// Validator wraps the go-playground validator for structured validation.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with the domain tags registered.
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation(fieldRefTag, validateFieldRef)
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// IsEmail reports whether value is a syntactically valid email address.
func (val *Validator) IsEmail(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && val.v.Var(value, "email") == nil
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// validateFieldRef accepts empty values and the resolver's reference alphabet.
func validateFieldRef(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '.', r == '[', r == ']':
		default:
			return false
		}
	}
	return true
}

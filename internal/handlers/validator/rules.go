package validator

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func NewCheckInValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("filename", filenameValidator),
		},
		{
			Rule: registerFn("plain_text", plainTextValidator),
		},
	}
}

// filenameValidator accepts a name whose base is a regular file name.
func filenameValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	if val == "" || strings.ContainsRune(val, 0) {
		return false
	}
	base := filepath.Base(val)
	return base != "." && base != ".." && base != string(filepath.Separator)
}

// plainTextValidator rejects invalid utf-8 and control characters other than
// line breaks and tabs.
func plainTextValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	if !utf8.ValidString(val) {
		return false
	}
	for _, r := range val {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return false
		}
	}
	return true
}

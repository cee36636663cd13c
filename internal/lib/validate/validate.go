// Package validate builds the request validator shared by handlers and the
// admissions workflow.
package validate

import (
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,50}$`)

func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Registration of a fixed tag on a fresh validator cannot fail.
	_ = v.RegisterValidation("username", username)
	_ = v.RegisterValidation("password", password)

	return v
}

func username(fl validator.FieldLevel) bool {
	return usernameRe.MatchString(fl.Field().String())
}

// password requires at least 8 characters with an upper case letter, a lower
// case letter and a digit.
func password(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) < 8 {
		return false
	}

	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	return upper && lower && digit
}

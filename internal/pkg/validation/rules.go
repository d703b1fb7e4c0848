package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"stock-admin/internal/constants"

	ozzo "github.com/go-ozzo/ozzo-validation"
)

var errWeakPassword = errors.New("password must be at least 8 characters with a letter, a number and a special character")

// Account field rules shared by the user schema.
var (
	emailRule    = ozzo.Match(regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)).Error("email must be a valid email")
	fullnameRule = ozzo.Match(regexp.MustCompile(`^[A-Za-z][A-Za-z\s\-']*$`)).Error("fullname may only contain letters, spaces, hyphens and apostrophes")
	passwordRule = ozzo.By(func(v interface{}) error {
		if s, _ := v.(string); s != "" && !strongPassword(s) {
			return errWeakPassword
		}
		return nil
	})
	roleRule = ozzo.In(roleValues()...).Error("role must be one of viewer, editor, admin, owner")
)

func roleValues() []interface{} {
	out := make([]interface{}, 0, len(constants.ValidRoles))
	for _, r := range constants.ValidRoles {
		out = append(out, r)
	}
	return out
}

// strongPassword wants 8+ characters covering letters, digits and punctuation or symbols.
func strongPassword(p string) bool {
	if len(p) < 8 {
		return false
	}
	var letter, digit, special bool
	for _, r := range p {
		letter = letter || unicode.IsLetter(r)
		digit = digit || unicode.IsDigit(r)
		special = special || unicode.IsPunct(r) || unicode.IsSymbol(r)
	}
	return letter && digit && special
}

// notBlank rejects whitespace-only strings, which Required lets through.
func notBlank(field string) ozzo.Rule {
	return ozzo.By(func(v interface{}) error {
		if s, ok := v.(string); ok && s != "" && strings.TrimSpace(s) == "" {
			return errors.New(requiredMessage(field))
		}
		return nil
	})
}

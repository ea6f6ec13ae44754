package service

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Registration rules reported by InvalidInputError.
const (
	RuleUsernameLength  = "username_length"
	RuleUsernameCharset = "username_charset"
	RuleEmailFormat     = "email_format"
	RulePasswordLength  = "password_length"
	RulePasswordTooLong = "password_too_long"
	RulePasswordLower   = "password_lowercase"
	RulePasswordUpper   = "password_uppercase"
	RulePasswordDigit   = "password_digit"
	RulePasswordSymbol  = "password_symbol"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 30
	minPasswordLen = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordBytes = 72
)

// ValidateRegistration checks the inputs in order and reports the first
// violated rule.
func ValidateRegistration(username, email, password string) error {
	if rule := usernameRule(username); rule != "" {
		return &InvalidInputError{Rule: rule}
	}
	if !validEmail(email) {
		return &InvalidInputError{Rule: RuleEmailFormat}
	}
	if rule := passwordRule(password); rule != "" {
		return &InvalidInputError{Rule: rule}
	}
	return nil
}

func usernameRule(u string) string {
	if n := utf8.RuneCountInString(u); n < minUsernameLen || n > maxUsernameLen {
		return RuleUsernameLength
	}
	for _, r := range u {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return RuleUsernameCharset
		}
	}
	return ""
}

func validEmail(e string) bool {
	if strings.Count(e, "@") != 1 || strings.ContainsAny(e, " \t\r\n") {
		return false
	}
	local, domain, _ := strings.Cut(e, "@")
	return local != "" && domain != ""
}

func passwordRule(p string) string {
	if utf8.RuneCountInString(p) < minPasswordLen {
		return RulePasswordLength
	}
	if len(p) > maxPasswordBytes {
		return RulePasswordTooLong
	}

	var lower, upper, digit, symbol bool
	for _, r := range p {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	switch {
	case !lower:
		return RulePasswordLower
	case !upper:
		return RulePasswordUpper
	case !digit:
		return RulePasswordDigit
	case !symbol:
		return RulePasswordSymbol
	}
	return ""
}

package auth

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// PasswordSymbols is the fixed set a password must draw at least one symbol from.
const PasswordSymbols = "!@#$%^&*"

const minPasswordLen = 8

// ErrWeakPassword wraps every password policy failure.
var ErrWeakPassword = errors.New("password does not meet the policy")

// ValidatePassword checks the password policy against the trimmed input:
// 8 to 72 characters, at least one lowercase letter, uppercase letter,
// digit and symbol from PasswordSymbols, and nothing outside
// [A-Za-z0-9] plus those symbols.
//
// The returned error's message is safe to show to the client.
func ValidatePassword(p string) error {
	p = strings.TrimSpace(p)

	if utf8.RuneCountInString(p) < minPasswordLen {
		return weak("password must be at least 8 characters long")
	}
	if len(p) > maxPasswordBytes {
		return weak("password must be 72 bytes or fewer")
	}

	var lower, upper, digit, symbol bool
	for _, c := range p {
		switch {
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.ContainsRune(PasswordSymbols, c):
			symbol = true
		default:
			return weak("password may only contain letters, digits and " + PasswordSymbols)
		}
	}

	if !lower || !upper || !digit || !symbol {
		return weak("password must contain at least one uppercase letter, one lowercase letter, one digit and one of " + PasswordSymbols)
	}
	return nil
}

type policyError struct{ msg string }

func (e *policyError) Error() string { return e.msg }
func (e *policyError) Unwrap() error { return ErrWeakPassword }

func weak(msg string) error { return &policyError{msg: msg} }

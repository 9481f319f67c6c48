package security

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	MinPasswordLength = 8
	// bcrypt refuses inputs longer than this many bytes
	MaxPasswordBytes = 72
	PasswordSymbols   = "!@#$%^&*()-_=+[]{};:'\",.<>/?\\|`~"
)

var ErrWeakPassword = errors.New("password does not meet policy")

// PolicyError lists every rule a password failed.
type PolicyError struct {
	Failed []string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("%s: %s", ErrWeakPassword, strings.Join(e.Failed, ", "))
}

func (e *PolicyError) Unwrap() error {
	return ErrWeakPassword
}

// CheckPasswordPolicy requires a minimum length plus at least one upper case
// letter, lower case letter, digit and symbol from PasswordSymbols. The
// encoded form may not exceed MaxPasswordBytes.
func CheckPasswordPolicy(plain string) error {
	var upper, lower, digit, symbol bool

	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}

	var failed []string
	if len([]rune(plain)) < MinPasswordLength {
		failed = append(failed, fmt.Sprintf("at least %d characters", MinPasswordLength))
	}
	if len(plain) > MaxPasswordBytes {
		failed = append(failed, fmt.Sprintf("at most %d bytes", MaxPasswordBytes))
	}
	if !upper {
		failed = append(failed, "an upper case letter")
	}
	if !lower {
		failed = append(failed, "a lower case letter")
	}
	if !digit {
		failed = append(failed, "a digit")
	}
	if !symbol {
		failed = append(failed, "a symbol")
	}

	if len(failed) > 0 {
		return &PolicyError{Failed: failed}
	}
	return nil
}

// Package authutil holds password hashing and password policy helpers.
package authutil

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor used for new hashes.
const BcryptCost = 12

// MinPasswordLength is the shortest password accepted at signup or change.
const MinPasswordLength = 8

var (
	ErrPasswordTooShort  = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong   = errors.New("password must be at most 72 bytes")
	ErrPasswordNoLetter  = errors.New("password must contain a letter")
	ErrPasswordNoDigit   = errors.New("password must contain a number")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrPasswordIncorrect = errors.New("incorrect password")
)

// HashPassword returns a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	if len(password) > 72 {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword compares a bcrypt hash with a candidate password.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword enforces the password policy. confirm must equal password.
func ValidatePassword(password, confirm string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > 72 {
		return ErrPasswordTooLong
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter {
		return ErrPasswordNoLetter
	}
	if !digit {
		return ErrPasswordNoDigit
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

// PasswordRules describes the policy for display.
func PasswordRules() string {
	return strings.Join([]string{
		"at least 8 characters",
		"at least one letter",
		"at least one number",
	}, ", ")
}

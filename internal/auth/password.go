// Package auth issues and verifies access tokens, hashes passwords and keeps
// one-time passcodes.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor of new password hashes
var BcryptCost = bcrypt.DefaultCost

// HashPassword returns the bcrypt hash of password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// PasswordStrong requires at least one letter and one digit
func PasswordStrong(password string) bool {
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

// GenerateDigits returns n random decimal digits from crypto/rand
func GenerateDigits(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("digit count must be positive")
	}
	ten := big.NewInt(10)
	out := make([]byte, n)
	for i := range out {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate digits: %w", err)
		}
		out[i] = byte('0' + d.Int64())
	}
	return string(out), nil
}

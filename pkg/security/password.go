package security

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrHashingFailed = errors.New("password hashing failed")
	ErrPasswordShort = errors.New("Password must be at least 8 characters long")
	ErrPasswordWeak  = errors.New("Password must contain uppercase, lowercase, and numbers")
	MinPasswordLen   = 8
)

// PasswordHasher provides interface for password operations
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare reports whether password matches hashedPassword. A malformed
	// hash never matches.
	Compare(hashedPassword, password string) bool
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a new password hasher using bcrypt
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (b *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(bytes), nil
}

func (b *bcryptHasher) Compare(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// CheckStrength requires at least MinPasswordLen characters with an
// uppercase letter, a lowercase letter and a digit.
func CheckStrength(password string) error {
	if len([]rune(password)) < MinPasswordLen {
		return ErrPasswordShort
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return ErrPasswordWeak
	}
	return nil
}

// leaderboard/auth/passwords.go
package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher wraps bcrypt with a configured work factor. Only the hash
// is ever stored; plaintext passwords exist for the duration of a request.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher, falling back to bcrypt's default cost
// when the configured value is out of bcrypt's supported range.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash derives the salted hash to store for a password.
func (ph *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), ph.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare reports whether the password matches the stored hash.
func (ph *PasswordHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

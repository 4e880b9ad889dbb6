package auth

import (
	"github.com/you/careauth/domain"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCodeHasher implements domain.CodeHasher
type BcryptCodeHasher struct {
	cost int
}

// NewCodeHasher creates a bcrypt hasher for one-time codes
func NewCodeHasher() domain.CodeHasher {
	return &BcryptCodeHasher{cost: bcrypt.DefaultCost}
}

// NewCodeHasherWithCost is used by tests to keep hashing fast
func NewCodeHasherWithCost(cost int) domain.CodeHasher {
	return &BcryptCodeHasher{cost: cost}
}

// Hash implements domain.CodeHasher
func (h *BcryptCodeHasher) Hash(code string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify implements domain.CodeHasher
func (h *BcryptCodeHasher) Verify(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

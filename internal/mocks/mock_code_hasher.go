package mocks

import "github.com/you/careauth/domain"

// MockCodeHasher implements domain.CodeHasher interface for testing
type MockCodeHasher struct {
	HashFunc   func(code string) (string, error)
	VerifyFunc func(hash, code string) bool
}

// NewMockCodeHasher creates a new MockCodeHasher with default behaviors
func NewMockCodeHasher() *MockCodeHasher {
	return &MockCodeHasher{}
}

// Hash hashes a code
func (m *MockCodeHasher) Hash(code string) (string, error) {
	if m.HashFunc != nil {
		return m.HashFunc(code)
	}
	// Default behavior: simple prefix hash
	return "hashed_" + code, nil
}

// Verify checks a code against a hash
func (m *MockCodeHasher) Verify(hash, code string) bool {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(hash, code)
	}
	return hash == "hashed_"+code
}

// Compile-time interface compliance verification
var _ domain.CodeHasher = (*MockCodeHasher)(nil)

package mocks

import (
	"context"

	"github.com/you/careauth/domain"
)

// MockPrincipalRepository implements domain.PrincipalRepository interface for testing
type MockPrincipalRepository struct {
	CreateFunc      func(ctx context.Context, principal *domain.Principal) error
	FindByPhoneFunc func(ctx context.Context, phone string) (*domain.Principal, error)
	FindByIDFunc    func(ctx context.Context, id uint) (*domain.Principal, error)
}

// NewMockPrincipalRepository creates a new MockPrincipalRepository with default behaviors
func NewMockPrincipalRepository() *MockPrincipalRepository {
	return &MockPrincipalRepository{}
}

// WithPrincipals configures phone and id lookups to resolve the given principals
func (m *MockPrincipalRepository) WithPrincipals(principals ...*domain.Principal) *MockPrincipalRepository {
	m.FindByPhoneFunc = func(ctx context.Context, phone string) (*domain.Principal, error) {
		for _, p := range principals {
			if p.Phone == phone {
				return p, nil
			}
		}
		return nil, domain.ErrPrincipalNotFound
	}
	m.FindByIDFunc = func(ctx context.Context, id uint) (*domain.Principal, error) {
		for _, p := range principals {
			if p.ID == id {
				return p, nil
			}
		}
		return nil, domain.ErrPrincipalNotFound
	}
	return m
}

// Create creates a new principal
func (m *MockPrincipalRepository) Create(ctx context.Context, principal *domain.Principal) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, principal)
	}
	// Default behavior: success
	return nil
}

// FindByPhone finds a principal by phone number
func (m *MockPrincipalRepository) FindByPhone(ctx context.Context, phone string) (*domain.Principal, error) {
	if m.FindByPhoneFunc != nil {
		return m.FindByPhoneFunc(ctx, phone)
	}
	// Default behavior: not found
	return nil, domain.ErrPrincipalNotFound
}

// FindByID finds a principal by ID
func (m *MockPrincipalRepository) FindByID(ctx context.Context, id uint) (*domain.Principal, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	// Default behavior: not found
	return nil, domain.ErrPrincipalNotFound
}

// Compile-time interface compliance verification
var _ domain.PrincipalRepository = (*MockPrincipalRepository)(nil)

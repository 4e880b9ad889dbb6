package mocks

import (
	"context"

	"github.com/you/careauth/domain"
)

// MockAuthorizationRepository implements domain.AuthorizationRepository interface for testing
type MockAuthorizationRepository struct {
	CreateFunc               func(ctx context.Context, req *domain.AuthorizationRequest) error
	FindByIDFunc             func(ctx context.Context, id string) (*domain.AuthorizationRequest, error)
	FindActiveByPairFunc     func(ctx context.Context, doctorID, patientID uint) (*domain.AuthorizationRequest, error)
	UpdateFunc               func(ctx context.Context, req *domain.AuthorizationRequest) error
	ListApprovedByDoctorFunc func(ctx context.Context, doctorID uint) ([]*domain.AuthorizationRequest, error)
	ExistsApprovedFunc       func(ctx context.Context, doctorID, patientID uint) (bool, error)
}

// NewMockAuthorizationRepository creates a new MockAuthorizationRepository with default behaviors
func NewMockAuthorizationRepository() *MockAuthorizationRepository {
	return &MockAuthorizationRepository{}
}

// Create stores a new authorization request
func (m *MockAuthorizationRepository) Create(ctx context.Context, req *domain.AuthorizationRequest) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	return nil
}

// FindByID finds an authorization request by ID
func (m *MockAuthorizationRepository) FindByID(ctx context.Context, id string) (*domain.AuthorizationRequest, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, domain.ErrAuthorizationNotFound
}

// FindActiveByPair finds the active request for a doctor and patient
func (m *MockAuthorizationRepository) FindActiveByPair(ctx context.Context, doctorID, patientID uint) (*domain.AuthorizationRequest, error) {
	if m.FindActiveByPairFunc != nil {
		return m.FindActiveByPairFunc(ctx, doctorID, patientID)
	}
	return nil, domain.ErrAuthorizationNotFound
}

// Update persists status and attempt changes
func (m *MockAuthorizationRepository) Update(ctx context.Context, req *domain.AuthorizationRequest) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, req)
	}
	return nil
}

// ListApprovedByDoctor lists approved requests of a doctor
func (m *MockAuthorizationRepository) ListApprovedByDoctor(ctx context.Context, doctorID uint) ([]*domain.AuthorizationRequest, error) {
	if m.ListApprovedByDoctorFunc != nil {
		return m.ListApprovedByDoctorFunc(ctx, doctorID)
	}
	return nil, nil
}

// ExistsApproved reports whether an approved request exists for the pair
func (m *MockAuthorizationRepository) ExistsApproved(ctx context.Context, doctorID, patientID uint) (bool, error) {
	if m.ExistsApprovedFunc != nil {
		return m.ExistsApprovedFunc(ctx, doctorID, patientID)
	}
	return false, nil
}

// Compile-time interface compliance verification
var _ domain.AuthorizationRepository = (*MockAuthorizationRepository)(nil)

package mocks

import (
	"context"

	"github.com/you/careauth/domain"
)

// MockAuthorizationService implements domain.AuthorizationService interface for testing
type MockAuthorizationService struct {
	RequestAuthorizationFunc    func(ctx context.Context, doctorID uint, patientPhone string) (*domain.AuthorizationResult, error)
	VerifyAuthorizationCodeFunc func(ctx context.Context, doctorID uint, authorizationID, code string) (*domain.AuthorizationResult, error)
	GetAuthorizedPatientsFunc   func(ctx context.Context, doctorID uint) ([]*domain.Patient, error)
	CheckAuthorizationFunc      func(ctx context.Context, doctorID, patientID uint) (bool, error)
}

// NewMockAuthorizationService creates a new MockAuthorizationService with default behaviors
func NewMockAuthorizationService() *MockAuthorizationService {
	return &MockAuthorizationService{}
}

// RequestAuthorization starts an authorization request
func (m *MockAuthorizationService) RequestAuthorization(ctx context.Context, doctorID uint, patientPhone string) (*domain.AuthorizationResult, error) {
	if m.RequestAuthorizationFunc != nil {
		return m.RequestAuthorizationFunc(ctx, doctorID, patientPhone)
	}
	return &domain.AuthorizationResult{Success: true, Message: "authorization requested", AuthorizationID: "authz-1", Status: domain.AuthorizationPending}, nil
}

// VerifyAuthorizationCode verifies an authorization code
func (m *MockAuthorizationService) VerifyAuthorizationCode(ctx context.Context, doctorID uint, authorizationID, code string) (*domain.AuthorizationResult, error) {
	if m.VerifyAuthorizationCodeFunc != nil {
		return m.VerifyAuthorizationCodeFunc(ctx, doctorID, authorizationID, code)
	}
	return &domain.AuthorizationResult{Success: true, Message: "authorization approved", AuthorizationID: authorizationID, Status: domain.AuthorizationApproved}, nil
}

// GetAuthorizedPatients lists the patients a doctor may access
func (m *MockAuthorizationService) GetAuthorizedPatients(ctx context.Context, doctorID uint) ([]*domain.Patient, error) {
	if m.GetAuthorizedPatientsFunc != nil {
		return m.GetAuthorizedPatientsFunc(ctx, doctorID)
	}
	return []*domain.Patient{}, nil
}

// CheckAuthorization reports whether a doctor may access a patient
func (m *MockAuthorizationService) CheckAuthorization(ctx context.Context, doctorID, patientID uint) (bool, error) {
	if m.CheckAuthorizationFunc != nil {
		return m.CheckAuthorizationFunc(ctx, doctorID, patientID)
	}
	return false, nil
}

// Compile-time interface compliance verification
var _ domain.AuthorizationService = (*MockAuthorizationService)(nil)

package mocks

import (
	"context"

	"github.com/you/careauth/domain"
)

// MockPatientRepository implements domain.PatientRepository interface for testing
type MockPatientRepository struct {
	CreateFunc      func(ctx context.Context, patient *domain.Patient) error
	FindByPhoneFunc func(ctx context.Context, phone string) (*domain.Patient, error)
	FindByIDFunc    func(ctx context.Context, id uint) (*domain.Patient, error)
}

// NewMockPatientRepository creates a new MockPatientRepository with default behaviors
func NewMockPatientRepository() *MockPatientRepository {
	return &MockPatientRepository{}
}

// WithPatients configures phone and id lookups to resolve the given patients
func (m *MockPatientRepository) WithPatients(patients ...*domain.Patient) *MockPatientRepository {
	m.FindByPhoneFunc = func(ctx context.Context, phone string) (*domain.Patient, error) {
		for _, p := range patients {
			if p.Phone == phone {
				return p, nil
			}
		}
		return nil, domain.ErrPatientNotFound
	}
	m.FindByIDFunc = func(ctx context.Context, id uint) (*domain.Patient, error) {
		for _, p := range patients {
			if p.ID == id {
				return p, nil
			}
		}
		return nil, domain.ErrPatientNotFound
	}
	return m
}

// Create creates a new patient
func (m *MockPatientRepository) Create(ctx context.Context, patient *domain.Patient) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, patient)
	}
	return nil
}

// FindByPhone finds a patient by phone number
func (m *MockPatientRepository) FindByPhone(ctx context.Context, phone string) (*domain.Patient, error) {
	if m.FindByPhoneFunc != nil {
		return m.FindByPhoneFunc(ctx, phone)
	}
	return nil, domain.ErrPatientNotFound
}

// FindByID finds a patient by ID
func (m *MockPatientRepository) FindByID(ctx context.Context, id uint) (*domain.Patient, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, domain.ErrPatientNotFound
}

var _ domain.PatientRepository = (*MockPatientRepository)(nil)

package repositories

import (
	"context"
	"errors"

	"github.com/you/careauth/domain"
	"gorm.io/gorm"
)

// PatientRepositoryImpl implements domain.PatientRepository using GORM
type PatientRepositoryImpl struct {
	db *gorm.DB
}

// NewPatientRepository creates a new patient repository
func NewPatientRepository(db *gorm.DB) domain.PatientRepository {
	return &PatientRepositoryImpl{db: db}
}

// Create implements domain.PatientRepository
func (r *PatientRepositoryImpl) Create(ctx context.Context, patient *domain.Patient) error {
	dbPatient := patientToDB(patient)
	if err := r.db.WithContext(ctx).Create(dbPatient).Error; err != nil {
		return err
	}
	patient.ID = dbPatient.ID
	patient.CreatedAt = dbPatient.CreatedAt
	patient.UpdatedAt = dbPatient.UpdatedAt
	return nil
}

// FindByPhone implements domain.PatientRepository
func (r *PatientRepositoryImpl) FindByPhone(ctx context.Context, phone string) (*domain.Patient, error) {
	return r.first(ctx, "phone = ?", phone)
}

// FindByID implements domain.PatientRepository
func (r *PatientRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Patient, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *PatientRepositoryImpl) first(ctx context.Context, query string, arg interface{}) (*domain.Patient, error) {
	var dbPatient DBPatient
	err := r.db.WithContext(ctx).Where(query, arg).First(&dbPatient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPatientNotFound
		}
		return nil, err
	}
	return patientToDomain(&dbPatient), nil
}

func patientToDB(p *domain.Patient) *DBPatient {
	return &DBPatient{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Phone:       p.Phone,
		DateOfBirth: p.DateOfBirth,
		Gender:      p.Gender,
	}
}

func patientToDomain(p *DBPatient) *domain.Patient {
	return &domain.Patient{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Phone:       p.Phone,
		DateOfBirth: p.DateOfBirth,
		Gender:      p.Gender,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

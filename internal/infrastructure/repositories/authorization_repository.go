package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/you/careauth/domain"
	"gorm.io/gorm"
)

// AuthorizationRepositoryImpl implements domain.AuthorizationRepository using GORM
type AuthorizationRepositoryImpl struct {
	db *gorm.DB
}

// NewAuthorizationRepository creates a new authorization request repository
func NewAuthorizationRepository(db *gorm.DB) domain.AuthorizationRepository {
	return &AuthorizationRepositoryImpl{db: db}
}

// Create implements domain.AuthorizationRepository
func (r *AuthorizationRepositoryImpl) Create(ctx context.Context, req *domain.AuthorizationRequest) error {
	row := &DBAuthorizationRequest{
		ID:             req.ID,
		DoctorID:       req.DoctorID,
		PatientID:      req.PatientID,
		RequestDate:    req.RequestDate,
		Status:         string(req.Status),
		CodeHash:       req.CodeHash,
		CodeExpiryDate: req.CodeExpiryDate,
		Attempts:       req.Attempts,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	req.UpdatedAt = row.UpdatedAt
	return nil
}

// FindByID implements domain.AuthorizationRepository
func (r *AuthorizationRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.AuthorizationRequest, error) {
	var row DBAuthorizationRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAuthorizationNotFound
		}
		return nil, err
	}
	return authorizationToDomain(&row), nil
}

// FindActiveByPair implements domain.AuthorizationRepository
func (r *AuthorizationRepositoryImpl) FindActiveByPair(ctx context.Context, doctorID, patientID uint) (*domain.AuthorizationRequest, error) {
	var row DBAuthorizationRequest
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND patient_id = ? AND status IN ?", doctorID, patientID,
			[]string{string(domain.AuthorizationPending), string(domain.AuthorizationApproved)}).
		Order("request_date DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAuthorizationNotFound
		}
		return nil, err
	}
	return authorizationToDomain(&row), nil
}

// Update implements domain.AuthorizationRepository. Only the mutable fields are written.
func (r *AuthorizationRepositoryImpl) Update(ctx context.Context, req *domain.AuthorizationRequest) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&DBAuthorizationRequest{}).
		Where("id = ?", req.ID).
		Updates(map[string]interface{}{
			"status":     string(req.Status),
			"attempts":   req.Attempts,
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAuthorizationNotFound
	}
	req.UpdatedAt = now
	return nil
}

// ListApprovedByDoctor implements domain.AuthorizationRepository
func (r *AuthorizationRepositoryImpl) ListApprovedByDoctor(ctx context.Context, doctorID uint) ([]*domain.AuthorizationRequest, error) {
	var rows []DBAuthorizationRequest
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND status = ?", doctorID, string(domain.AuthorizationApproved)).
		Order("request_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*domain.AuthorizationRequest, 0, len(rows))
	for i := range rows {
		out = append(out, authorizationToDomain(&rows[i]))
	}
	return out, nil
}

// ExistsApproved implements domain.AuthorizationRepository
func (r *AuthorizationRepositoryImpl) ExistsApproved(ctx context.Context, doctorID, patientID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&DBAuthorizationRequest{}).
		Where("doctor_id = ? AND patient_id = ? AND status = ?", doctorID, patientID, string(domain.AuthorizationApproved)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func authorizationToDomain(row *DBAuthorizationRequest) *domain.AuthorizationRequest {
	return &domain.AuthorizationRequest{
		ID:             row.ID,
		DoctorID:       row.DoctorID,
		PatientID:      row.PatientID,
		RequestDate:    row.RequestDate,
		Status:         domain.AuthorizationStatus(row.Status),
		CodeHash:       row.CodeHash,
		CodeExpiryDate: row.CodeExpiryDate,
		Attempts:       row.Attempts,
		UpdatedAt:      row.UpdatedAt,
	}
}

package repositories

import (
	"context"
	"errors"

	"github.com/you/careauth/domain"
	"gorm.io/gorm"
)

// PrincipalRepositoryImpl implements domain.PrincipalRepository using GORM
type PrincipalRepositoryImpl struct {
	db *gorm.DB
}

// NewPrincipalRepository creates a new principal repository
func NewPrincipalRepository(db *gorm.DB) domain.PrincipalRepository {
	return &PrincipalRepositoryImpl{db: db}
}

// Create implements domain.PrincipalRepository
func (r *PrincipalRepositoryImpl) Create(ctx context.Context, principal *domain.Principal) error {
	dbPrincipal := &DBPrincipal{
		ID:    principal.ID,
		Name:  principal.Name,
		Phone: principal.Phone,
		Role:  string(principal.Role),
	}
	if err := r.db.WithContext(ctx).Create(dbPrincipal).Error; err != nil {
		return err
	}
	principal.ID = dbPrincipal.ID
	principal.CreatedAt = dbPrincipal.CreatedAt
	principal.UpdatedAt = dbPrincipal.UpdatedAt
	return nil
}

// FindByPhone implements domain.PrincipalRepository
func (r *PrincipalRepositoryImpl) FindByPhone(ctx context.Context, phone string) (*domain.Principal, error) {
	return r.first(ctx, "phone = ?", phone)
}

// FindByID implements domain.PrincipalRepository
func (r *PrincipalRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Principal, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *PrincipalRepositoryImpl) first(ctx context.Context, query string, arg interface{}) (*domain.Principal, error) {
	var dbPrincipal DBPrincipal
	err := r.db.WithContext(ctx).Where(query, arg).First(&dbPrincipal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, err
	}
	return &domain.Principal{
		ID:        dbPrincipal.ID,
		Name:      dbPrincipal.Name,
		Phone:     dbPrincipal.Phone,
		Role:      domain.Role(dbPrincipal.Role),
		CreatedAt: dbPrincipal.CreatedAt,
		UpdatedAt: dbPrincipal.UpdatedAt,
	}, nil
}

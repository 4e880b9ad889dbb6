package repositories

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// DBPrincipal represents the database model for a principal
type DBPrincipal struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:255"`
	Phone     string    `gorm:"uniqueIndex;size:32"`
	Role      string    `gorm:"index;size:32"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBPrincipal) TableName() string {
	return "principals"
}

// DBPatient represents the database model for a patient record
type DBPatient struct {
	ID          uint   `gorm:"primaryKey"`
	FirstName   string `gorm:"size:128"`
	LastName    string `gorm:"size:128"`
	Phone       string `gorm:"uniqueIndex;size:32"`
	DateOfBirth *time.Time
	Gender      string `gorm:"size:16"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBPatient) TableName() string {
	return "patients"
}

// DBAuthorizationRequest represents the database model for an authorization request
type DBAuthorizationRequest struct {
	ID             string    `gorm:"primaryKey;size:36"`
	DoctorID       uint      `gorm:"index:idx_authz_pair"`
	PatientID      uint      `gorm:"index:idx_authz_pair"`
	RequestDate    time.Time `gorm:"index"`
	Status         string    `gorm:"index;size:16"`
	CodeHash       string    `gorm:"size:255"`
	CodeExpiryDate time.Time
	Attempts       int
	UpdatedAt      time.Time
}

// TableName returns the table name for GORM
func (DBAuthorizationRequest) TableName() string {
	return "authorization_requests"
}

// Migrate creates or updates the tables owned by this package
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&DBPrincipal{}, &DBPatient{}, &DBAuthorizationRequest{}); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}
	return nil
}

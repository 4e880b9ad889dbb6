package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/careauth/domain"
)

func TestPatientRepositoryImpl_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPatientRepository(db)
	ctx := context.Background()

	dob := time.Date(1980, 5, 17, 0, 0, 0, 0, time.UTC)
	patient := &domain.Patient{
		FirstName:   "Jean",
		LastName:    "Dupont",
		Phone:       "0700000000",
		DateOfBirth: &dob,
		Gender:      "M",
	}
	require.NoError(t, repo.Create(ctx, patient))
	require.NotZero(t, patient.ID)

	byPhone, err := repo.FindByPhone(ctx, "0700000000")
	require.NoError(t, err)
	assert.Equal(t, patient.ID, byPhone.ID)
	assert.Equal(t, "Jean Dupont", byPhone.FullName())
	require.NotNil(t, byPhone.DateOfBirth)
	assert.True(t, dob.Equal(*byPhone.DateOfBirth))

	byID, err := repo.FindByID(ctx, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, "0700000000", byID.Phone)
}

func TestPatientRepositoryImpl_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPatientRepository(db)
	ctx := context.Background()

	_, err := repo.FindByPhone(ctx, "0799999999")
	assert.True(t, errors.Is(err, domain.ErrPatientNotFound))

	_, err = repo.FindByID(ctx, 42)
	assert.True(t, errors.Is(err, domain.ErrPatientNotFound))
}

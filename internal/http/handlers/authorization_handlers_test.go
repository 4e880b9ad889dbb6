package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/careauth/domain"
	"github.com/you/careauth/internal/mocks"
)

func setupAuthorizationRouter(svc domain.AuthorizationService, role domain.Role) *gin.Engine {
	h := NewAuthorizationHandlers(svc, testLogger())

	r := gin.New()
	g := r.Group("/authorizations", asPrincipal(1, role))
	g.POST("", h.Request)
	g.POST("/:id/verify", h.Verify)
	g.GET("/patients", h.Patients)
	return r
}

func TestAuthorizationHandlers_Request(t *testing.T) {
	tests := []struct {
		name           string
		role           domain.Role
		body           interface{}
		result         *domain.AuthorizationResult
		err            error
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "pending request created",
			role:           domain.RoleDoctor,
			body:           AuthorizationRequest{PatientPhone: "0700000000"},
			result:         &domain.AuthorizationResult{Success: true, AuthorizationID: "a-1", Status: domain.AuthorizationPending},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "already approved",
			role:           domain.RoleDoctor,
			body:           AuthorizationRequest{PatientPhone: "0700000000"},
			result:         &domain.AuthorizationResult{Success: true, AuthorizationID: "a-1", Status: domain.AuthorizationApproved},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "duplicate pending",
			role:           domain.RoleDoctor,
			body:           AuthorizationRequest{PatientPhone: "0700000000"},
			result:         &domain.AuthorizationResult{Message: "an authorization request is already pending for this patient", AuthorizationID: "a-1", Status: domain.AuthorizationPending},
			err:            domain.ErrAuthorizationPending,
			expectedStatus: http.StatusConflict,
			expectedError:  "an authorization request is already pending for this patient",
		},
		{
			name:           "unknown patient",
			role:           domain.RoleDoctor,
			body:           AuthorizationRequest{PatientPhone: "0799999999"},
			result:         &domain.AuthorizationResult{Message: "patient not found"},
			err:            domain.ErrPatientNotFound,
			expectedStatus: http.StatusNotFound,
			expectedError:  "patient not found",
		},
		{
			name:           "missing phone",
			role:           domain.RoleDoctor,
			body:           gin.H{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "patients cannot request access",
			role:           domain.RolePatient,
			body:           AuthorizationRequest{PatientPhone: "0700000000"},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockAuthorizationService()
			svc.RequestAuthorizationFunc = func(ctx context.Context, doctorID uint, patientPhone string) (*domain.AuthorizationResult, error) {
				assert.Equal(t, uint(1), doctorID)
				return tt.result, tt.err
			}

			w := perform(t, setupAuthorizationRouter(svc, tt.role), http.MethodPost, "/authorizations", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				body := decode(t, w)
				assert.Equal(t, tt.expectedError, body["error"])
				assert.Contains(t, body, "data")
			}
		})
	}
}

func TestAuthorizationHandlers_Verify(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"approved", nil, http.StatusOK},
		{"wrong code", domain.ErrCodeInvalid, http.StatusUnauthorized},
		{"expired", domain.ErrCodeExpired, http.StatusGone},
		{"too many attempts", domain.ErrTooManyAttempts, http.StatusTooManyRequests},
		{"closed", domain.ErrAuthorizationClosed, http.StatusConflict},
		{"unknown request", domain.ErrAuthorizationNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockAuthorizationService()
			svc.VerifyAuthorizationCodeFunc = func(ctx context.Context, doctorID uint, authorizationID, code string) (*domain.AuthorizationResult, error) {
				assert.Equal(t, uint(1), doctorID, "the caller is passed through")
				assert.Equal(t, "a-1", authorizationID)
				assert.Equal(t, "4821", code)
				if tt.err != nil {
					return &domain.AuthorizationResult{Message: domain.UserMessage(tt.err)}, tt.err
				}
				return &domain.AuthorizationResult{Success: true, AuthorizationID: authorizationID, Status: domain.AuthorizationApproved}, nil
			}

			w := perform(t, setupAuthorizationRouter(svc, domain.RoleDoctor), http.MethodPost, "/authorizations/a-1/verify", CodeRequest{Code: "4821"})

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	t.Run("non-doctor cannot submit a code", func(t *testing.T) {
		svc := mocks.NewMockAuthorizationService()
		svc.VerifyAuthorizationCodeFunc = func(ctx context.Context, doctorID uint, authorizationID, code string) (*domain.AuthorizationResult, error) {
			t.Fatal("service must not be reached")
			return nil, nil
		}

		w := perform(t, setupAuthorizationRouter(svc, domain.RolePatient), http.MethodPost, "/authorizations/a-1/verify", CodeRequest{Code: "4821"})

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestAuthorizationHandlers_Patients(t *testing.T) {
	t.Run("lists authorized patients", func(t *testing.T) {
		svc := mocks.NewMockAuthorizationService()
		svc.GetAuthorizedPatientsFunc = func(ctx context.Context, doctorID uint) ([]*domain.Patient, error) {
			return []*domain.Patient{{ID: 10, FirstName: "Jean", LastName: "Dupont", Phone: "0700000000"}}, nil
		}

		w := perform(t, setupAuthorizationRouter(svc, domain.RoleDoctor), http.MethodGet, "/authorizations/patients", nil)

		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].([]interface{})
		require.Len(t, data, 1)
		assert.Equal(t, "Jean", data[0].(map[string]interface{})["first_name"])
	})

	t.Run("empty list is not null", func(t *testing.T) {
		svc := mocks.NewMockAuthorizationService()
		svc.GetAuthorizedPatientsFunc = func(ctx context.Context, doctorID uint) ([]*domain.Patient, error) {
			return nil, nil
		}

		w := perform(t, setupAuthorizationRouter(svc, domain.RoleDoctor), http.MethodGet, "/authorizations/patients", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []interface{}{}, decode(t, w)["data"])
	})

	t.Run("repository failure", func(t *testing.T) {
		svc := mocks.NewMockAuthorizationService()
		svc.GetAuthorizedPatientsFunc = func(ctx context.Context, doctorID uint) ([]*domain.Patient, error) {
			return nil, errors.New("connection refused")
		}

		w := perform(t, setupAuthorizationRouter(svc, domain.RoleDoctor), http.MethodGet, "/authorizations/patients", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

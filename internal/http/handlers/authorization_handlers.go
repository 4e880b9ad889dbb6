package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/you/careauth/domain"
	"github.com/you/careauth/internal/http/middleware"
)

// AuthorizationHandlers exposes the doctor to patient access workflow
type AuthorizationHandlers struct {
	authzSvc domain.AuthorizationService
	log      *logrus.Logger
}

// NewAuthorizationHandlers creates new authorization handlers
func NewAuthorizationHandlers(authzSvc domain.AuthorizationService, log *logrus.Logger) *AuthorizationHandlers {
	return &AuthorizationHandlers{authzSvc: authzSvc, log: log}
}

// AuthorizationRequest represents a doctor's access request
type AuthorizationRequest struct {
	PatientPhone string `json:"patient_phone" binding:"required"`
}

// CodeRequest represents the code relayed by the patient
type CodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// Request starts an authorization request for the authenticated doctor
func (h *AuthorizationHandlers) Request(c *gin.Context) {
	var req AuthorizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doctorID, ok := h.doctor(c)
	if !ok {
		return
	}

	result, err := h.authzSvc.RequestAuthorization(c.Request.Context(), doctorID, req.PatientPhone)
	if err != nil {
		h.fail(c, result, err)
		return
	}

	status := http.StatusOK
	if result.Status == domain.AuthorizationPending {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"data": result})
}

// Verify submits the patient's code for an authorization request
func (h *AuthorizationHandlers) Verify(c *gin.Context) {
	doctorID, ok := h.doctor(c)
	if !ok {
		return
	}

	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authzSvc.VerifyAuthorizationCode(c.Request.Context(), doctorID, c.Param("id"), req.Code)
	if err != nil {
		h.fail(c, result, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// Patients lists the patients the authenticated doctor may access
func (h *AuthorizationHandlers) Patients(c *gin.Context) {
	doctorID, ok := h.doctor(c)
	if !ok {
		return
	}

	patients, err := h.authzSvc.GetAuthorizedPatients(c.Request.Context(), doctorID)
	if err != nil {
		h.log.WithError(err).WithField("doctor_id", doctorID).Error("failed to list authorized patients")
		c.JSON(http.StatusInternalServerError, gin.H{"error": domain.UserMessage(err)})
		return
	}
	if patients == nil {
		patients = []*domain.Patient{}
	}
	c.JSON(http.StatusOK, gin.H{"data": patients})
}

func (h *AuthorizationHandlers) doctor(c *gin.Context) (uint, bool) {
	id, ok := middleware.PrincipalID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	if middleware.Role(c) != domain.RoleDoctor {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only doctors can request patient access"})
		return 0, false
	}
	return id, true
}

func (h *AuthorizationHandlers) fail(c *gin.Context, result *domain.AuthorizationResult, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.WithError(err).Error("authorization operation failed")
	}
	body := gin.H{"error": domain.UserMessage(err)}
	if result != nil {
		body["data"] = result
	}
	c.JSON(status, body)
}

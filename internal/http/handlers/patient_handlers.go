package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/you/careauth/domain"
	"github.com/you/careauth/internal/http/middleware"
)

// PatientHandlers serves patient records to principals allowed to see them
type PatientHandlers struct {
	patientRepo   domain.PatientRepository
	principalRepo domain.PrincipalRepository
	authzSvc      domain.AuthorizationService
	audit         domain.AuditLogger
	log           *logrus.Logger
}

// NewPatientHandlers creates new patient handlers
func NewPatientHandlers(
	patientRepo domain.PatientRepository,
	principalRepo domain.PrincipalRepository,
	authzSvc domain.AuthorizationService,
	audit domain.AuditLogger,
	log *logrus.Logger,
) *PatientHandlers {
	return &PatientHandlers{
		patientRepo:   patientRepo,
		principalRepo: principalRepo,
		authzSvc:      authzSvc,
		audit:         audit,
		log:           log,
	}
}

// Get returns a patient record.
// Doctors need standing access, patients only see their own record.
func (h *PatientHandlers) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patient ID"})
		return
	}

	principalID, ok := middleware.PrincipalID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx := c.Request.Context()
	patient, err := h.patientRepo.FindByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrPatientNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": domain.UserMessage(err)})
			return
		}
		h.log.WithError(err).WithField("patient_id", id).Error("failed to load patient")
		c.JSON(http.StatusInternalServerError, gin.H{"error": domain.UserMessage(err)})
		return
	}

	allowed, err := h.allowed(c, principalID, patient)
	if err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{"principal_id": principalID, "patient_id": id}).
			Error("failed to check patient access")
		c.JSON(http.StatusInternalServerError, gin.H{"error": domain.UserMessage(err)})
		return
	}

	event := domain.NewAuditEvent(domain.AccessGrantedEvent, principalID).
		WithMetadata("patient_id", patient.ID).
		WithMetadata("role", string(middleware.Role(c)))
	if !allowed {
		event.EventType = domain.AccessDeniedEvent
		event.WithError(domain.ErrAccessDenied)
	}
	if err := h.audit.LogEvent(ctx, event); err != nil {
		h.log.WithError(err).Warn("failed to record audit event")
	}

	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": patient})
}

func (h *PatientHandlers) allowed(c *gin.Context, principalID uint, patient *domain.Patient) (bool, error) {
	switch middleware.Role(c) {
	case domain.RoleAdmin:
		return true, nil
	case domain.RoleDoctor:
		return h.authzSvc.CheckAuthorization(c.Request.Context(), principalID, patient.ID)
	case domain.RolePatient:
		principal, err := h.principalRepo.FindByID(c.Request.Context(), principalID)
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return principal.Phone == patient.Phone, nil
	default:
		return false, nil
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/you/careauth/domain"
)

// AuthorizationConfig holds authorization workflow settings
type AuthorizationConfig struct {
	// MaxAttempts rejects a request after that many wrong codes; 0 disables the cap
	MaxAttempts int
}

// AuthorizationServiceImpl implements domain.AuthorizationService
type AuthorizationServiceImpl struct {
	authzRepo   domain.AuthorizationRepository
	patientRepo domain.PatientRepository
	locker      domain.PairLocker
	issuer      domain.CodeIssuer
	hasher      domain.CodeHasher
	audit       domain.AuditLogger
	clock       domain.Clock
	log         *logrus.Logger
	config      AuthorizationConfig
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(
	authzRepo domain.AuthorizationRepository,
	patientRepo domain.PatientRepository,
	locker domain.PairLocker,
	issuer domain.CodeIssuer,
	hasher domain.CodeHasher,
	audit domain.AuditLogger,
	clock domain.Clock,
	log *logrus.Logger,
	config AuthorizationConfig,
) domain.AuthorizationService {
	return &AuthorizationServiceImpl{
		authzRepo:   authzRepo,
		patientRepo: patientRepo,
		locker:      locker,
		issuer:      issuer,
		hasher:      hasher,
		audit:       audit,
		clock:       clock,
		log:         log,
		config:      config,
	}
}

// RequestAuthorization implements domain.AuthorizationService
func (s *AuthorizationServiceImpl) RequestAuthorization(ctx context.Context, doctorID uint, patientPhone string) (*domain.AuthorizationResult, error) {
	patientPhone = strings.TrimSpace(patientPhone)
	if patientPhone == "" {
		return failure(nil, domain.ErrPhoneEmpty)
	}

	patient, err := s.patientRepo.FindByPhone(ctx, patientPhone)
	if err != nil {
		if !errors.Is(err, domain.ErrPatientNotFound) {
			err = fmt.Errorf("failed to look up patient: %w", err)
		}
		return failure(nil, err)
	}

	unlock, err := s.locker.Lock(ctx, doctorID, patient.ID)
	if err != nil {
		return failure(nil, err)
	}
	defer unlock()

	existing, err := s.authzRepo.FindActiveByPair(ctx, doctorID, patient.ID)
	switch {
	case errors.Is(err, domain.ErrAuthorizationNotFound):
	case err != nil:
		return failure(nil, fmt.Errorf("failed to look up authorization: %w", err))
	case existing.Status == domain.AuthorizationApproved:
		return approved(existing, "access already authorized"), nil
	case !existing.ExpiredAt(s.clock.Now()):
		return failure(existing, domain.ErrAuthorizationPending)
	default:
		if err := s.transition(ctx, existing, domain.AuthorizationExpired); err != nil {
			return failure(existing, err)
		}
	}

	issued, err := s.issuer.IssueAuthorizationCode(ctx, doctorID, patient.ID)
	if err != nil {
		return failure(nil, fmt.Errorf("failed to issue authorization code: %w", err))
	}
	hash, err := s.hasher.Hash(issued.Code)
	if err != nil {
		return failure(nil, fmt.Errorf("failed to hash authorization code: %w", err))
	}

	req := &domain.AuthorizationRequest{
		ID:             uuid.NewString(),
		DoctorID:       doctorID,
		PatientID:      patient.ID,
		RequestDate:    issued.IssuedAt,
		Status:         domain.AuthorizationPending,
		CodeHash:       hash,
		CodeExpiryDate: issued.ExpiresAt,
	}
	if err := s.authzRepo.Create(ctx, req); err != nil {
		return failure(nil, fmt.Errorf("failed to store authorization request: %w", err))
	}
	s.issuer.SendAuthorizationCode(ctx, doctorID, patient.ID, patient.Phone, issued)

	s.record(ctx, s.event(domain.AuthorizationRequestedEvent, req).WithPhone(patient.Phone))

	return &domain.AuthorizationResult{
		Success:         true,
		Message:         "authorization code sent to patient",
		AuthorizationID: req.ID,
		PatientID:       req.PatientID,
		Status:          req.Status,
	}, nil
}

// VerifyAuthorizationCode implements domain.AuthorizationService. Requests
// belonging to another doctor are reported as not found.
func (s *AuthorizationServiceImpl) VerifyAuthorizationCode(ctx context.Context, doctorID uint, authorizationID, code string) (*domain.AuthorizationResult, error) {
	req, err := s.authzRepo.FindByID(ctx, authorizationID)
	if err != nil {
		if !errors.Is(err, domain.ErrAuthorizationNotFound) {
			err = fmt.Errorf("failed to look up authorization: %w", err)
		}
		return failure(nil, err)
	}
	if req.DoctorID != doctorID {
		s.log.WithFields(logrus.Fields{
			"authorization_id": req.ID,
			"doctor_id":        doctorID,
			"owner_id":         req.DoctorID,
		}).Warn("code submitted for another doctor's authorization")
		return failure(nil, domain.ErrAuthorizationNotFound)
	}

	unlock, err := s.locker.Lock(ctx, req.DoctorID, req.PatientID)
	if err != nil {
		return failure(req, err)
	}
	defer unlock()

	// Re-read under the pair lock so concurrent submissions see each other's attempts.
	req, err = s.authzRepo.FindByID(ctx, authorizationID)
	if err != nil {
		return failure(nil, fmt.Errorf("failed to reload authorization: %w", err))
	}

	switch req.Status {
	case domain.AuthorizationPending:
	case domain.AuthorizationApproved:
		return approved(req, "access already authorized"), nil
	default:
		return failure(req, domain.ErrAuthorizationClosed)
	}

	if req.ExpiredAt(s.clock.Now()) {
		if err := s.transition(ctx, req, domain.AuthorizationExpired); err != nil {
			return failure(req, err)
		}
		return failure(req, domain.ErrCodeExpired)
	}

	if !s.hasher.Verify(req.CodeHash, code) {
		req.Attempts++
		if s.config.MaxAttempts > 0 && req.Attempts >= s.config.MaxAttempts {
			if err := s.transition(ctx, req, domain.AuthorizationRejected); err != nil {
				return failure(req, err)
			}
			return failure(req, domain.ErrTooManyAttempts)
		}
		if err := s.save(ctx, req); err != nil {
			return failure(req, err)
		}
		s.record(ctx, s.event(domain.AuthorizationFailedEvent, req).
			WithError(domain.ErrCodeInvalid).
			WithMetadata("attempts", req.Attempts))
		return failure(req, domain.ErrCodeInvalid)
	}

	if err := s.transition(ctx, req, domain.AuthorizationApproved); err != nil {
		return failure(req, err)
	}
	return approved(req, "authorization approved"), nil
}

// GetAuthorizedPatients implements domain.AuthorizationService
func (s *AuthorizationServiceImpl) GetAuthorizedPatients(ctx context.Context, doctorID uint) ([]*domain.Patient, error) {
	requests, err := s.authzRepo.ListApprovedByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list authorizations: %w", err)
	}

	patients := make([]*domain.Patient, 0, len(requests))
	for _, req := range requests {
		patient, err := s.patientRepo.FindByID(ctx, req.PatientID)
		if errors.Is(err, domain.ErrPatientNotFound) {
			s.log.WithFields(logrus.Fields{
				"doctor_id":        doctorID,
				"patient_id":       req.PatientID,
				"authorization_id": req.ID,
			}).Warn("authorized patient no longer exists")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up patient %d: %w", req.PatientID, err)
		}
		patients = append(patients, patient)
	}
	return patients, nil
}

// CheckAuthorization implements domain.AuthorizationService
func (s *AuthorizationServiceImpl) CheckAuthorization(ctx context.Context, doctorID, patientID uint) (bool, error) {
	ok, err := s.authzRepo.ExistsApproved(ctx, doctorID, patientID)
	if err != nil {
		return false, fmt.Errorf("failed to check authorization: %w", err)
	}
	return ok, nil
}

// transition moves req to status, persists it and records the matching audit event
func (s *AuthorizationServiceImpl) transition(ctx context.Context, req *domain.AuthorizationRequest, status domain.AuthorizationStatus) error {
	req.Status = status
	if err := s.save(ctx, req); err != nil {
		return err
	}

	switch status {
	case domain.AuthorizationApproved:
		s.record(ctx, s.event(domain.AuthorizationApprovedEvent, req))
	case domain.AuthorizationExpired:
		s.record(ctx, s.event(domain.AuthorizationExpiredEvent, req).WithError(domain.ErrCodeExpired))
	case domain.AuthorizationRejected:
		s.record(ctx, s.event(domain.AuthorizationRejectedEvent, req).
			WithError(domain.ErrTooManyAttempts).
			WithMetadata("attempts", req.Attempts))
	}
	return nil
}

func (s *AuthorizationServiceImpl) save(ctx context.Context, req *domain.AuthorizationRequest) error {
	req.UpdatedAt = s.clock.Now()
	if err := s.authzRepo.Update(ctx, req); err != nil {
		return fmt.Errorf("failed to update authorization %s: %w", req.ID, err)
	}
	return nil
}

func (s *AuthorizationServiceImpl) event(eventType domain.AuditEventType, req *domain.AuthorizationRequest) *domain.AuditEvent {
	return domain.NewAuditEvent(eventType, req.DoctorID).
		WithMetadata("authorization_id", req.ID).
		WithMetadata("doctor_id", req.DoctorID).
		WithMetadata("patient_id", req.PatientID)
}

func (s *AuthorizationServiceImpl) record(ctx context.Context, event *domain.AuditEvent) {
	if err := s.audit.LogEvent(ctx, event); err != nil {
		s.log.WithError(err).Warn("failed to record audit event")
	}
}

func approved(req *domain.AuthorizationRequest, message string) *domain.AuthorizationResult {
	return &domain.AuthorizationResult{
		Success:         true,
		Message:         message,
		AuthorizationID: req.ID,
		PatientID:       req.PatientID,
		Status:          req.Status,
	}
}

// failure builds the result returned alongside err
func failure(req *domain.AuthorizationRequest, err error) (*domain.AuthorizationResult, error) {
	result := &domain.AuthorizationResult{Message: domain.UserMessage(err)}
	if req != nil {
		result.AuthorizationID = req.ID
		result.PatientID = req.PatientID
		result.Status = req.Status
	}
	return result, err
}

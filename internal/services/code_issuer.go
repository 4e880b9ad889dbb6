package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/you/careauth/domain"
)

// CodeIssuerConfig holds code lengths and validity windows
type CodeIssuerConfig struct {
	LoginCodeLength int
	LoginTTL        time.Duration
	// DemoLoginCode replaces the random login code when set
	DemoLoginCode string

	AuthorizationCodeLength int
	AuthorizationTTL        time.Duration
}

// CodeIssuerImpl implements domain.CodeIssuer
type CodeIssuerImpl struct {
	notificationSvc domain.NotificationService
	clock           domain.Clock
	log             *logrus.Logger
	config          CodeIssuerConfig
}

// NewCodeIssuer creates a new code issuer
func NewCodeIssuer(notificationSvc domain.NotificationService, clock domain.Clock, log *logrus.Logger, config CodeIssuerConfig) *CodeIssuerImpl {
	return &CodeIssuerImpl{
		notificationSvc: notificationSvc,
		clock:           clock,
		log:             log,
		config:          config,
	}
}

// IssueLoginCode implements domain.CodeIssuer
func (s *CodeIssuerImpl) IssueLoginCode(ctx context.Context, phone string) (*domain.IssuedCode, error) {
	code := s.config.DemoLoginCode
	if code == "" {
		var err error
		code, err = generateSecureCode(s.config.LoginCodeLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate login code: %w", err)
		}
	}

	issued := s.issue(code, s.config.LoginTTL)
	s.dispatch(phone, fmt.Sprintf("Your verification code is: %s. It expires in %s.", code, formatWindow(s.config.LoginTTL)),
		logrus.Fields{"phone": phone, "kind": "login"})
	return issued, nil
}

// IssueAuthorizationCode implements domain.CodeIssuer. Nothing is sent until
// SendAuthorizationCode is called, so callers can persist the request first.
func (s *CodeIssuerImpl) IssueAuthorizationCode(ctx context.Context, doctorID, patientID uint) (*domain.IssuedCode, error) {
	code, err := generateSecureCode(s.config.AuthorizationCodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate authorization code: %w", err)
	}
	return s.issue(code, s.config.AuthorizationTTL), nil
}

// SendAuthorizationCode implements domain.CodeIssuer
func (s *CodeIssuerImpl) SendAuthorizationCode(ctx context.Context, doctorID, patientID uint, phone string, issued *domain.IssuedCode) {
	s.dispatch(phone, fmt.Sprintf("A doctor is requesting access to your medical record. Share this code to approve: %s. It expires in %s.", issued.Code, formatWindow(s.config.AuthorizationTTL)),
		logrus.Fields{"phone": phone, "kind": "authorization", "doctor_id": doctorID, "patient_id": patientID})
}

func (s *CodeIssuerImpl) issue(code string, ttl time.Duration) *domain.IssuedCode {
	now := s.clock.Now()
	return &domain.IssuedCode{Code: code, IssuedAt: now, ExpiresAt: now.Add(ttl)}
}

// dispatch sends the message; delivery failures are logged only
func (s *CodeIssuerImpl) dispatch(phone, message string, fields logrus.Fields) {
	if err := s.notificationSvc.SendSMS(phone, message); err != nil {
		s.log.WithFields(fields).WithError(err).Warn("failed to dispatch verification code")
		return
	}
	s.log.WithFields(fields).Debug("verification code dispatched")
}

// generateSecureCode generates a numeric code using crypto/rand
func generateSecureCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length %d", length)
	}
	digits := make([]byte, length)
	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + num.Int64())
	}
	return string(digits), nil
}

func formatWindow(d time.Duration) string {
	if d%time.Minute == 0 {
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
	return d.String()
}

var _ domain.CodeIssuer = (*CodeIssuerImpl)(nil)

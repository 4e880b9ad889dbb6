package services

import (
	"testing"
	"time"

	"github.com/you/careauth/domain"
	"github.com/you/careauth/internal/logging"
	"github.com/you/careauth/internal/mocks"
)

var testStart = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// loginDeps holds the collaborators of a LoginManager under test
type loginDeps struct {
	principals *mocks.MockPrincipalRepository
	issuer     *mocks.MockCodeIssuer
	sessions   *mocks.MockSessionRepository
	audit      *mocks.MockAuditLogger
	clock      *mocks.FakeClock
}

// createLoginManagerForTest creates a LoginManager backed by mocks
func createLoginManagerForTest(t *testing.T, config LoginConfig, principals ...*domain.Principal) (*LoginManager, *loginDeps) {
	t.Helper()

	if config.Tick == 0 {
		config.Tick = time.Second
	}

	clock := mocks.NewFakeClock(testStart)
	deps := &loginDeps{
		principals: mocks.NewMockPrincipalRepository().WithPrincipals(principals...),
		issuer:     mocks.NewMockCodeIssuer(clock),
		sessions:   mocks.NewMockSessionRepository(),
		audit:      mocks.NewMockAuditLogger(),
		clock:      clock,
	}

	manager := NewLoginManager(deps.principals, deps.issuer, deps.sessions, deps.audit, clock, logging.Discard(), config)
	t.Cleanup(manager.Close)
	return manager, deps
}

// createDoctor creates a doctor principal for testing
func createDoctor(t *testing.T) *domain.Principal {
	t.Helper()

	return &domain.Principal{
		ID:        1,
		Name:      "Dr Meredith Grey",
		Phone:     "0612345678",
		Role:      domain.RoleDoctor,
		CreatedAt: testStart.Add(-24 * time.Hour),
		UpdatedAt: testStart.Add(-time.Hour),
	}
}

// createPatientPrincipal creates a patient principal for testing
func createPatientPrincipal(t *testing.T) *domain.Principal {
	t.Helper()

	return &domain.Principal{ID: 2, Name: "Jean Dupont", Phone: "0700000000", Role: domain.RolePatient}
}

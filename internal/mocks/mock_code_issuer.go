package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/you/careauth/domain"
)

// MockCodeIssuer implements domain.CodeIssuer interface for testing.
// By default it issues LoginCode and AuthorizationCode with the configured TTLs.
type MockCodeIssuer struct {
	IssueLoginCodeFunc         func(ctx context.Context, phone string) (*domain.IssuedCode, error)
	IssueAuthorizationCodeFunc func(ctx context.Context, doctorID, patientID uint) (*domain.IssuedCode, error)

	Clock             domain.Clock
	LoginCode         string
	LoginTTL          time.Duration
	AuthorizationCode string
	AuthorizationTTL  time.Duration

	mu         sync.Mutex
	loginCalls int
	authzCalls int
	authzSent  int
	lastPhone  string
}

// NewMockCodeIssuer creates a new MockCodeIssuer with default behaviors
func NewMockCodeIssuer(clock domain.Clock) *MockCodeIssuer {
	return &MockCodeIssuer{
		Clock:             clock,
		LoginCode:         "123456",
		LoginTTL:          5 * time.Minute,
		AuthorizationCode: "4821",
		AuthorizationTTL:  15 * time.Minute,
	}
}

// IssueLoginCode issues a login code
func (m *MockCodeIssuer) IssueLoginCode(ctx context.Context, phone string) (*domain.IssuedCode, error) {
	m.mu.Lock()
	m.loginCalls++
	m.lastPhone = phone
	m.mu.Unlock()

	if m.IssueLoginCodeFunc != nil {
		return m.IssueLoginCodeFunc(ctx, phone)
	}
	now := m.Clock.Now()
	return &domain.IssuedCode{Code: m.LoginCode, IssuedAt: now, ExpiresAt: now.Add(m.LoginTTL)}, nil
}

// IssueAuthorizationCode issues an authorization code
func (m *MockCodeIssuer) IssueAuthorizationCode(ctx context.Context, doctorID, patientID uint) (*domain.IssuedCode, error) {
	m.mu.Lock()
	m.authzCalls++
	m.mu.Unlock()

	if m.IssueAuthorizationCodeFunc != nil {
		return m.IssueAuthorizationCodeFunc(ctx, doctorID, patientID)
	}
	now := m.Clock.Now()
	return &domain.IssuedCode{Code: m.AuthorizationCode, IssuedAt: now, ExpiresAt: now.Add(m.AuthorizationTTL)}, nil
}

// SendAuthorizationCode records an authorization code delivery
func (m *MockCodeIssuer) SendAuthorizationCode(ctx context.Context, doctorID, patientID uint, phone string, issued *domain.IssuedCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authzSent++
	m.lastPhone = phone
}

// LoginCalls returns how many login codes were issued
func (m *MockCodeIssuer) LoginCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginCalls
}

// AuthorizationCalls returns how many authorization codes were issued
func (m *MockCodeIssuer) AuthorizationCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authzCalls
}

// AuthorizationSends returns how many authorization codes were delivered
func (m *MockCodeIssuer) AuthorizationSends() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authzSent
}

// LastPhone returns the phone number of the most recent issuance
func (m *MockCodeIssuer) LastPhone() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPhone
}

// Compile-time interface compliance verification
var _ domain.CodeIssuer = (*MockCodeIssuer)(nil)

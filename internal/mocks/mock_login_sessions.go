package mocks

import (
	"context"

	"github.com/you/careauth/domain"
)

// MockLoginSession implements domain.LoginSession interface for testing
type MockLoginSession struct {
	InitiateLoginFunc func(ctx context.Context, phone string) error
	VerifyCodeFunc    func(ctx context.Context, code string) error
	LogoutFunc        func(ctx context.Context) error
	StateFunc         func() domain.AuthSnapshot
}

// InitiateLogin starts a login
func (m *MockLoginSession) InitiateLogin(ctx context.Context, phone string) error {
	if m.InitiateLoginFunc != nil {
		return m.InitiateLoginFunc(ctx, phone)
	}
	return nil
}

// VerifyCode submits a login code
func (m *MockLoginSession) VerifyCode(ctx context.Context, code string) error {
	if m.VerifyCodeFunc != nil {
		return m.VerifyCodeFunc(ctx, code)
	}
	return nil
}

// Logout ends the session
func (m *MockLoginSession) Logout(ctx context.Context) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx)
	}
	return nil
}

// State returns the session snapshot
func (m *MockLoginSession) State() domain.AuthSnapshot {
	if m.StateFunc != nil {
		return m.StateFunc()
	}
	return domain.AuthSnapshot{CurrentStep: domain.StepPhoneInput}
}

// MockLoginSessions implements domain.LoginSessions interface for testing
type MockLoginSessions struct {
	SessionFunc func(ctx context.Context, clientID string) domain.LoginSession
	Default     *MockLoginSession
}

// NewMockLoginSessions creates a registry that hands out the same session to every client
func NewMockLoginSessions() *MockLoginSessions {
	return &MockLoginSessions{Default: &MockLoginSession{}}
}

// Session returns the login session of a client
func (m *MockLoginSessions) Session(ctx context.Context, clientID string) domain.LoginSession {
	if m.SessionFunc != nil {
		return m.SessionFunc(ctx, clientID)
	}
	return m.Default
}

// Compile-time interface compliance verification
var (
	_ domain.LoginSession  = (*MockLoginSession)(nil)
	_ domain.LoginSessions = (*MockLoginSessions)(nil)
)

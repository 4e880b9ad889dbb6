package mocks

import (
	"context"
	"sync"

	"github.com/you/careauth/domain"
)

// MockSessionRepository implements domain.SessionRepository interface for testing.
// Without configured funcs it behaves as an in-memory store.
type MockSessionRepository struct {
	SaveFunc   func(ctx context.Context, clientID string, user *domain.SessionUser) error
	FindFunc   func(ctx context.Context, clientID string) (*domain.SessionUser, error)
	DeleteFunc func(ctx context.Context, clientID string) error

	mu       sync.Mutex
	sessions map[string]*domain.SessionUser
}

// NewMockSessionRepository creates a new MockSessionRepository with default behaviors
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{sessions: make(map[string]*domain.SessionUser)}
}

// Save stores the session user for a client
func (m *MockSessionRepository) Save(ctx context.Context, clientID string, user *domain.SessionUser) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, clientID, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *user
	m.sessions[clientID] = &copied
	return nil
}

// Find returns the session user stored for a client
func (m *MockSessionRepository) Find(ctx context.Context, clientID string) (*domain.SessionUser, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, clientID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.sessions[clientID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	copied := *user
	return &copied, nil
}

// Delete removes the session of a client
func (m *MockSessionRepository) Delete(ctx context.Context, clientID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, clientID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, clientID)
	return nil
}

// Stored reports whether a session is currently stored for a client
func (m *MockSessionRepository) Stored(clientID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[clientID]
	return ok
}

// Compile-time interface compliance verification
var _ domain.SessionRepository = (*MockSessionRepository)(nil)

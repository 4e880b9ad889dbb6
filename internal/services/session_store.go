package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/you/careauth/domain"
)

// SessionStore persists the authenticated user of one client
type SessionStore struct {
	repo     domain.SessionRepository
	clientID string
	log      *logrus.Logger
}

// NewSessionStore creates a session store scoped to clientID
func NewSessionStore(repo domain.SessionRepository, clientID string, log *logrus.Logger) *SessionStore {
	return &SessionStore{repo: repo, clientID: clientID, log: log}
}

// Load restores the persisted session. It never fails: anything other than a
// complete stored user yields an unauthenticated state, and unusable records
// are removed.
func (s *SessionStore) Load(ctx context.Context) domain.AuthState {
	initial := domain.InitialAuthState()

	user, err := s.repo.Find(ctx, s.clientID)
	switch {
	case err == nil && user.Valid():
		return domain.Reduce(initial, domain.SessionRestored{User: user})
	case errors.Is(err, domain.ErrSessionNotFound):
		return domain.Reduce(initial, domain.SessionLoadFailed{})
	case err == nil || errors.Is(err, domain.ErrSessionMalformed):
		s.log.WithField("client_id", s.clientID).WithError(err).Warn("discarding unusable stored session")
		if delErr := s.repo.Delete(ctx, s.clientID); delErr != nil {
			s.log.WithField("client_id", s.clientID).WithError(delErr).Error("failed to delete stored session")
		}
	default:
		s.log.WithField("client_id", s.clientID).WithError(err).Error("failed to load stored session")
	}
	return domain.Reduce(initial, domain.SessionLoadFailed{})
}

// Save persists the authenticated user
func (s *SessionStore) Save(ctx context.Context, user *domain.SessionUser) error {
	if err := s.repo.Save(ctx, s.clientID, user); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear removes the persisted session
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.repo.Delete(ctx, s.clientID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

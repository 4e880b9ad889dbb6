package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/you/careauth/domain"
)

// SessionRepositoryImpl implements domain.SessionRepository using Redis.
// One JSON record is kept per client.
type SessionRepositoryImpl struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(client *redis.Client, ttl time.Duration) domain.SessionRepository {
	return &SessionRepositoryImpl{
		client: client,
		prefix: "session:",
		ttl:    ttl,
	}
}

// Save implements domain.SessionRepository
func (r *SessionRepositoryImpl) Save(ctx context.Context, clientID string, user *domain.SessionUser) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return r.client.Set(ctx, r.prefix+clientID, data, r.ttl).Err()
}

// Find implements domain.SessionRepository. A record that cannot be decoded yields domain.ErrSessionMalformed.
func (r *SessionRepositoryImpl) Find(ctx context.Context, clientID string) (*domain.SessionUser, error) {
	data, err := r.client.Get(ctx, r.prefix+clientID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var user domain.SessionUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSessionMalformed, err)
	}

	return &user, nil
}

// Delete implements domain.SessionRepository
func (r *SessionRepositoryImpl) Delete(ctx context.Context, clientID string) error {
	return r.client.Del(ctx, r.prefix+clientID).Err()
}

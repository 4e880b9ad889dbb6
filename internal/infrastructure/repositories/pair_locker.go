package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/you/careauth/domain"
)

// releaseScript deletes the lock only if it is still held by the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisPairLocker implements domain.PairLocker with SET NX locks
type RedisPairLocker struct {
	client   *redis.Client
	ttl      time.Duration
	retries  int
	interval time.Duration
}

// NewRedisPairLocker creates a locker whose locks expire after ttl
func NewRedisPairLocker(client *redis.Client, ttl time.Duration) *RedisPairLocker {
	return &RedisPairLocker{
		client:   client,
		ttl:      ttl,
		retries:  20,
		interval: 25 * time.Millisecond,
	}
}

// Lock implements domain.PairLocker. It returns domain.ErrPairLocked if the
// lock is still held after the retry budget is spent.
func (l *RedisPairLocker) Lock(ctx context.Context, doctorID, patientID uint) (func(), error) {
	key := fmt.Sprintf("authz:lock:%d:%d", doctorID, patientID)
	token := uuid.NewString()

	for attempt := 0; ; attempt++ {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire pair lock: %w", err)
		}
		if ok {
			break
		}
		if attempt >= l.retries {
			return nil, domain.ErrPairLocked
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.interval):
		}
	}

	return func() {
		// context.Background so a cancelled request still releases the lock
		releaseScript.Run(context.Background(), l.client, []string{key}, token)
	}, nil
}

var _ domain.PairLocker = (*RedisPairLocker)(nil)

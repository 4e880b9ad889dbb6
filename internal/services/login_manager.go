package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/you/careauth/domain"
)

// LoginManager keeps one LoginFlow per client id.
// A flow restores the client's persisted session when it is first requested.
//
// Only flows waiting on an outstanding code live beyond the request that used
// them. Signed-in sessions are persisted and restored on demand, so flows
// without a code are dropped as soon as nobody holds them. Flows whose code
// has lapsed are dropped by Sweep.
type LoginManager struct {
	principals domain.PrincipalRepository
	issuer     domain.CodeIssuer
	sessions   domain.SessionRepository
	audit      domain.AuditLogger
	clock      domain.Clock
	log        *logrus.Logger
	config     LoginConfig

	mu    sync.Mutex
	flows map[string]*flowEntry

	stop      chan struct{}
	closeOnce sync.Once
}

type flowEntry struct {
	flow *LoginFlow
	refs int
}

// NewLoginManager creates a new login manager. When config.SweepInterval is
// set a background sweep runs until Close.
func NewLoginManager(
	principals domain.PrincipalRepository,
	issuer domain.CodeIssuer,
	sessions domain.SessionRepository,
	audit domain.AuditLogger,
	clock domain.Clock,
	log *logrus.Logger,
	config LoginConfig,
) *LoginManager {
	m := &LoginManager{
		principals: principals,
		issuer:     issuer,
		sessions:   sessions,
		audit:      audit,
		clock:      clock,
		log:        log,
		config:     config,
		flows:      make(map[string]*flowEntry),
		stop:       make(chan struct{}),
	}
	if config.SweepInterval > 0 {
		go m.sweepEvery(config.SweepInterval)
	}
	return m
}

// Session implements domain.LoginSessions. The returned handle belongs to a
// single request and must not be shared between goroutines.
func (m *LoginManager) Session(ctx context.Context, clientID string) domain.LoginSession {
	return &clientSession{manager: m, ctx: ctx, clientID: clientID}
}

// acquire returns the flow of clientID, creating and restoring it on first use.
// The flow stays in memory until the matching release.
func (m *LoginManager) acquire(ctx context.Context, clientID string) *LoginFlow {
	m.mu.Lock()
	entry, ok := m.flows[clientID]
	if !ok {
		store := NewSessionStore(m.sessions, clientID, m.log)
		entry = &flowEntry{flow: NewLoginFlow(clientID, m.principals, m.issuer, store, m.audit, m.clock, m.log, m.config)}
		m.flows[clientID] = entry
		// Hold the flow lock before publishing so concurrent callers wait for the restore.
		entry.flow.mu.Lock()
	}
	entry.refs++
	m.mu.Unlock()

	if !ok {
		entry.flow.state = entry.flow.store.Load(ctx)
		entry.flow.mu.Unlock()
	}
	return entry.flow
}

// release unpins the flow of clientID and drops it when it holds no code
func (m *LoginManager) release(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.flows[clientID]
	if !ok {
		return
	}
	entry.refs--
	// refs == 0 means no caller holds the flow lock.
	if entry.refs == 0 && !entry.flow.holdsCode() {
		m.evictLocked(clientID, entry)
	}
}

// Sweep drops unheld flows whose code has lapsed and returns how many went
func (m *LoginManager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for clientID, entry := range m.flows {
		if entry.refs == 0 && !entry.flow.holdsLiveCode() {
			m.evictLocked(clientID, entry)
			evicted++
		}
	}
	return evicted
}

// Active returns the number of flows held in memory
func (m *LoginManager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.flows)
}

func (m *LoginManager) evictLocked(clientID string, entry *flowEntry) {
	delete(m.flows, clientID)
	entry.flow.Close()
}

func (m *LoginManager) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.log.WithField("evicted", n).Debug("dropped abandoned login flows")
			}
		}
	}
}

// Close stops the sweep and every flow's countdown
func (m *LoginManager) Close() {
	m.closeOnce.Do(func() { close(m.stop) })

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, entry := range m.flows {
		entry.flow.Close()
	}
}

// clientSession pins the client's flow for the duration of each call.
// State after an operation reports the snapshot taken right after it, since
// the flow itself may already have been dropped.
type clientSession struct {
	manager  *LoginManager
	ctx      context.Context
	clientID string
	last     *domain.AuthSnapshot
}

func (s *clientSession) InitiateLogin(ctx context.Context, phone string) error {
	return s.do(ctx, func(flow *LoginFlow) error { return flow.InitiateLogin(ctx, phone) })
}

func (s *clientSession) VerifyCode(ctx context.Context, code string) error {
	return s.do(ctx, func(flow *LoginFlow) error { return flow.VerifyCode(ctx, code) })
}

func (s *clientSession) Logout(ctx context.Context) error {
	return s.do(ctx, func(flow *LoginFlow) error { return flow.Logout(ctx) })
}

func (s *clientSession) State() domain.AuthSnapshot {
	if s.last != nil {
		return *s.last
	}
	_ = s.do(s.ctx, func(*LoginFlow) error { return nil })
	return *s.last
}

func (s *clientSession) do(ctx context.Context, op func(*LoginFlow) error) error {
	flow := s.manager.acquire(ctx, s.clientID)
	defer s.manager.release(s.clientID)

	err := op(flow)
	snapshot := flow.State()
	s.last = &snapshot
	return err
}

var (
	_ domain.LoginSessions = (*LoginManager)(nil)
	_ domain.LoginSession  = (*clientSession)(nil)
)

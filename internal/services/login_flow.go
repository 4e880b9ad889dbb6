package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/you/careauth/domain"
)

// LoginConfig holds login flow settings
type LoginConfig struct {
	// MaxAttempts caps wrong code submissions per issued code; 0 disables the cap
	MaxAttempts int
	Tick        time.Duration
	// SweepInterval is how often LoginManager drops flows whose code lapsed; 0 disables it
	SweepInterval time.Duration
}

// LoginFlow drives the phone + SMS code login of one client.
// All operations on a flow are serialized.
type LoginFlow struct {
	clientID    string
	principals  domain.PrincipalRepository
	issuer      domain.CodeIssuer
	store       *SessionStore
	audit       domain.AuditLogger
	clock       domain.Clock
	log         *logrus.Logger
	maxAttempts int
	countdown   *Countdown

	mu       sync.Mutex
	state    domain.AuthState
	issued   *domain.IssuedCode
	attempts int
}

// NewLoginFlow creates a login flow that has not loaded its persisted session yet
func NewLoginFlow(
	clientID string,
	principals domain.PrincipalRepository,
	issuer domain.CodeIssuer,
	store *SessionStore,
	audit domain.AuditLogger,
	clock domain.Clock,
	log *logrus.Logger,
	config LoginConfig,
) *LoginFlow {
	return &LoginFlow{
		clientID:    clientID,
		principals:  principals,
		issuer:      issuer,
		store:       store,
		audit:       audit,
		clock:       clock,
		log:         log,
		maxAttempts: config.MaxAttempts,
		countdown:   NewCountdown(config.Tick),
		state:       domain.InitialAuthState(),
	}
}

// InitiateLogin implements domain.LoginSession. Calling it again while a code
// is pending resends a fresh code, possibly to a different phone number.
func (f *LoginFlow) InitiateLogin(ctx context.Context, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.apply(domain.OperationStarted{})
	if f.state.CurrentStep == domain.StepCompleted {
		return domain.ErrAlreadySignedIn
	}

	phone = strings.TrimSpace(phone)
	if phone == "" {
		return f.rejectLogin(ctx, phone, domain.ErrPhoneEmpty)
	}

	principal, err := f.principals.FindByPhone(ctx, phone)
	if err != nil {
		if !errors.Is(err, domain.ErrPrincipalNotFound) {
			err = fmt.Errorf("failed to look up principal: %w", err)
		}
		return f.rejectLogin(ctx, phone, err)
	}

	issued, err := f.issuer.IssueLoginCode(ctx, phone)
	if err != nil {
		return f.rejectLogin(ctx, phone, fmt.Errorf("failed to issue login code: %w", err))
	}

	f.apply(domain.LoginInitiated{Phone: phone, Code: issued.Code})
	f.issued = issued
	f.attempts = 0
	f.countdown.Start(issued.ExpiresAt.Sub(issued.IssuedAt))

	f.record(ctx, domain.NewAuditEvent(domain.LoginCodeIssuedEvent, principal.ID).
		WithPhone(phone).
		WithSession(f.clientID).
		WithMetadata("expires_at", issued.ExpiresAt))
	return nil
}

// VerifyCode implements domain.LoginSession
func (f *LoginFlow) VerifyCode(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.apply(domain.OperationStarted{})
	if f.state.CurrentStep != domain.StepCodeVerification || f.issued == nil {
		return domain.ErrInvalidStep
	}

	if f.codeExpired() {
		return f.rejectCode(ctx, domain.ErrCodeExpired)
	}
	if f.maxAttempts > 0 && f.attempts >= f.maxAttempts {
		return f.rejectCode(ctx, domain.ErrTooManyAttempts)
	}

	if subtle.ConstantTimeCompare([]byte(code), []byte(f.state.VerificationCode)) != 1 {
		f.attempts++
		return f.rejectCode(ctx, domain.ErrCodeInvalid)
	}

	principal, err := f.principals.FindByPhone(ctx, f.state.PhoneNumber)
	if err != nil {
		if !errors.Is(err, domain.ErrPrincipalNotFound) {
			err = fmt.Errorf("failed to look up principal: %w", err)
		}
		return f.rejectCode(ctx, err)
	}

	user := domain.NewSessionUser(principal)
	if err := f.store.Save(ctx, user); err != nil {
		return f.rejectCode(ctx, err)
	}

	f.apply(domain.CodeVerified{User: user})
	f.resetCode()

	f.record(ctx, domain.NewAuditEvent(domain.LoginSucceededEvent, principal.ID).
		WithPhone(principal.Phone).
		WithSession(f.clientID).
		WithMetadata("role", string(principal.Role)))
	return nil
}

// Logout implements domain.LoginSession. It is safe to call in any step.
func (f *LoginFlow) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user := f.state.User
	f.resetCode()
	f.apply(domain.LoggedOut{})

	if err := f.store.Clear(ctx); err != nil {
		return err
	}

	if user != nil {
		f.record(ctx, domain.NewAuditEvent(domain.LogoutEvent, user.ID).WithSession(f.clientID))
	}
	return nil
}

// State implements domain.LoginSession
func (f *LoginFlow) State() domain.AuthSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.issued == nil {
		return f.state.Snapshot(0, false)
	}
	if f.codeExpired() {
		return f.state.Snapshot(0, true)
	}
	return f.state.Snapshot(f.countdown.Remaining(), false)
}

// Close stops the countdown
func (f *LoginFlow) Close() {
	f.countdown.Stop()
}

// holdsCode reports whether a code is outstanding, lapsed or not
func (f *LoginFlow) holdsCode() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issued != nil
}

func (f *LoginFlow) holdsLiveCode() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issued != nil && !f.codeExpired()
}

// codeExpired uses the wall clock as the authority; the countdown may lag behind it
func (f *LoginFlow) codeExpired() bool {
	return f.countdown.Expired() || !f.clock.Now().Before(f.issued.ExpiresAt)
}

func (f *LoginFlow) resetCode() {
	f.countdown.Stop()
	f.issued = nil
	f.attempts = 0
}

func (f *LoginFlow) apply(a domain.Action) {
	f.state = domain.Reduce(f.state, a)
}

func (f *LoginFlow) rejectLogin(ctx context.Context, phone string, err error) error {
	f.resetCode()
	f.apply(domain.LoginRejected{Error: domain.UserMessage(err)})

	eventType := domain.LoginFailedEvent
	if errors.Is(err, domain.ErrPrincipalNotFound) {
		eventType = domain.LoginUnknownPhoneEvent
	}
	f.record(ctx, domain.NewAuditEvent(eventType, 0).WithPhone(phone).WithSession(f.clientID).WithError(err))
	return err
}

func (f *LoginFlow) rejectCode(ctx context.Context, err error) error {
	f.apply(domain.CodeRejected{Error: domain.UserMessage(err)})

	f.record(ctx, domain.NewAuditEvent(domain.LoginFailedEvent, 0).
		WithPhone(f.state.PhoneNumber).
		WithSession(f.clientID).
		WithError(err).
		WithMetadata("attempts", f.attempts))
	return err
}

func (f *LoginFlow) record(ctx context.Context, event *domain.AuditEvent) {
	if err := f.audit.LogEvent(ctx, event); err != nil {
		f.log.WithField("client_id", f.clientID).WithError(err).Warn("failed to record audit event")
	}
}

var _ domain.LoginSession = (*LoginFlow)(nil)

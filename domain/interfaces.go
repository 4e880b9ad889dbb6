package domain

import (
	"context"
	"time"
)

// PrincipalRepository defines principal data access operations
type PrincipalRepository interface {
	Create(ctx context.Context, principal *Principal) error
	FindByPhone(ctx context.Context, phone string) (*Principal, error)
	FindByID(ctx context.Context, id uint) (*Principal, error)
}

// PatientRepository defines patient data access operations
type PatientRepository interface {
	Create(ctx context.Context, patient *Patient) error
	FindByPhone(ctx context.Context, phone string) (*Patient, error)
	FindByID(ctx context.Context, id uint) (*Patient, error)
}

// AuthorizationRepository defines authorization request data access operations.
// Requests are never deleted.
type AuthorizationRepository interface {
	Create(ctx context.Context, req *AuthorizationRequest) error
	FindByID(ctx context.Context, id string) (*AuthorizationRequest, error)
	// FindActiveByPair returns the most recent PENDING or APPROVED request for the pair
	FindActiveByPair(ctx context.Context, doctorID, patientID uint) (*AuthorizationRequest, error)
	Update(ctx context.Context, req *AuthorizationRequest) error
	ListApprovedByDoctor(ctx context.Context, doctorID uint) ([]*AuthorizationRequest, error)
	ExistsApproved(ctx context.Context, doctorID, patientID uint) (bool, error)
}

// SessionRepository persists one session record per client
type SessionRepository interface {
	Save(ctx context.Context, clientID string, user *SessionUser) error
	Find(ctx context.Context, clientID string) (*SessionUser, error)
	Delete(ctx context.Context, clientID string) error
}

// PairLocker serializes work on a single doctor/patient pair
type PairLocker interface {
	Lock(ctx context.Context, doctorID, patientID uint) (unlock func(), err error)
}

// NotificationService defines notification operations
type NotificationService interface {
	SendSMS(to, message string) error
}

// CodeIssuer issues one-time verification codes and dispatches them.
// Login codes are sent on issue; authorization codes are sent separately
// once the request holding their hash is stored.
type CodeIssuer interface {
	IssueLoginCode(ctx context.Context, phone string) (*IssuedCode, error)
	IssueAuthorizationCode(ctx context.Context, doctorID, patientID uint) (*IssuedCode, error)
	SendAuthorizationCode(ctx context.Context, doctorID, patientID uint, phone string, issued *IssuedCode)
}

// CodeHasher hashes one-time codes that are stored at rest
type CodeHasher interface {
	Hash(code string) (string, error)
	Verify(hash, code string) bool
}

// TokenService defines token operations
type TokenService interface {
	GenerateAccessToken(user *SessionUser, sessionID string) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
}

// PolicyService defines authorization policy operations
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
	GetPolicies() [][]string
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	SavePolicy() error
}

// LoginSession drives one client's login state machine
type LoginSession interface {
	InitiateLogin(ctx context.Context, phone string) error
	VerifyCode(ctx context.Context, code string) error
	Logout(ctx context.Context) error
	State() AuthSnapshot
}

// LoginSessions hands out the login session belonging to a client
type LoginSessions interface {
	Session(ctx context.Context, clientID string) LoginSession
}

// AuthorizationService defines the doctor to patient access workflow
type AuthorizationService interface {
	RequestAuthorization(ctx context.Context, doctorID uint, patientPhone string) (*AuthorizationResult, error)
	VerifyAuthorizationCode(ctx context.Context, doctorID uint, authorizationID, code string) (*AuthorizationResult, error)
	GetAuthorizedPatients(ctx context.Context, doctorID uint) ([]*Patient, error)
	CheckAuthorization(ctx context.Context, doctorID, patientID uint) (bool, error)
}

// Clock abstracts the current time
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

// Now implements Clock
func (SystemClock) Now() time.Time { return time.Now() }

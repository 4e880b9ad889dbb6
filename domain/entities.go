package domain

import (
	"strings"
	"time"
)

// Role identifies what a principal may do in the portal
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// SubjectPrefix marks a Casbin subject that stands for a role
const SubjectPrefix = "role_"

// Subject returns the Casbin subject policies for r are stored under
func (r Role) Subject() string {
	return SubjectPrefix + string(r)
}

// RoleOfSubject accepts a bare role or a role subject and returns the role
func RoleOfSubject(s string) Role {
	return Role(strings.TrimPrefix(s, SubjectPrefix))
}

// Principal represents an identity that can sign in with a phone number
type Principal struct {
	ID        uint
	Name      string
	Phone     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Patient represents a patient record
type Patient struct {
	ID          uint       `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// FullName returns the display name of the patient
func (p *Patient) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// SessionUser is the minimal principal persisted to restore a session
type SessionUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Phone string `json:"phone"`
}

// Valid reports whether the persisted user carries everything needed to restore a session
func (u *SessionUser) Valid() bool {
	return u != nil && u.ID != 0 && u.Phone != "" && u.Role.Valid()
}

// NewSessionUser builds the persisted form of a principal
func NewSessionUser(p *Principal) *SessionUser {
	return &SessionUser{
		ID:    p.ID,
		Name:  p.Name,
		Role:  p.Role,
		Phone: p.Phone,
	}
}

// AuthorizationStatus is the lifecycle status of an authorization request
type AuthorizationStatus string

const (
	AuthorizationPending  AuthorizationStatus = "PENDING"
	AuthorizationApproved AuthorizationStatus = "APPROVED"
	AuthorizationRejected AuthorizationStatus = "REJECTED"
	AuthorizationExpired  AuthorizationStatus = "EXPIRED"
)

// Active reports whether the status blocks a new request for the same pair
func (s AuthorizationStatus) Active() bool {
	return s == AuthorizationPending || s == AuthorizationApproved
}

// AuthorizationRequest is a doctor's request to access one patient's data
type AuthorizationRequest struct {
	ID             string
	DoctorID       uint
	PatientID      uint
	RequestDate    time.Time
	Status         AuthorizationStatus
	CodeHash       string
	CodeExpiryDate time.Time
	Attempts       int
	UpdatedAt      time.Time
}

// ExpiredAt reports whether the verification code is no longer valid at now
func (r *AuthorizationRequest) ExpiredAt(now time.Time) bool {
	return now.After(r.CodeExpiryDate)
}

// AuthorizationResult is the outcome of an authorization workflow operation
type AuthorizationResult struct {
	Success         bool                `json:"success"`
	Message         string              `json:"message"`
	AuthorizationID string              `json:"authorization_id,omitempty"`
	PatientID       uint                `json:"patient_id,omitempty"`
	Status          AuthorizationStatus `json:"status,omitempty"`
}

// IssuedCode is a one-time code together with its validity window
type IssuedCode struct {
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	PrincipalID uint   `json:"principal_id"`
	Role        Role   `json:"role"`
	SessionID   string `json:"session_id,omitempty"`
	IssuedAt    int64  `json:"iat"`
	ExpiresAt   int64  `json:"exp"`
}

package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/you/careauth/domain"
)

// PolicyServiceImpl implements domain.PolicyService over a Casbin enforcer.
// Roles may be given bare ("doctor") or as their subject ("role_doctor");
// rules are always stored under the subject.
type PolicyServiceImpl struct {
	enforcer domain.CasbinEnforcer
	log      *logrus.Logger
}

// NewPolicyService creates a new policy service
func NewPolicyService(enforcer domain.CasbinEnforcer, log *logrus.Logger) domain.PolicyService {
	return &PolicyServiceImpl{enforcer: enforcer, log: log}
}

// AddPolicy implements domain.PolicyService. Adding an existing rule is a no-op.
func (p *PolicyServiceImpl) AddPolicy(role, resource, action string) error {
	subject := p.subject(role)
	added, err := p.enforcer.AddPolicy(subject, resource, action)
	if err != nil {
		return fmt.Errorf("failed to add policy for %s: %w", subject, err)
	}
	if !added {
		return nil
	}
	return p.persist("policy added", subject, resource, action)
}

// RemovePolicy implements domain.PolicyService
func (p *PolicyServiceImpl) RemovePolicy(role, resource, action string) error {
	subject := p.subject(role)
	removed, err := p.enforcer.RemovePolicy(subject, resource, action)
	if err != nil {
		return fmt.Errorf("failed to remove policy for %s: %w", subject, err)
	}
	if !removed {
		return nil
	}
	return p.persist("policy removed", subject, resource, action)
}

// CheckPermission implements domain.PolicyService
func (p *PolicyServiceImpl) CheckPermission(role, resource, action string) (bool, error) {
	return p.enforcer.Enforce(p.subject(role), resource, action)
}

// GetPolicies implements domain.PolicyService
func (p *PolicyServiceImpl) GetPolicies() [][]string {
	policies, err := p.enforcer.GetPolicy()
	if err != nil {
		p.log.WithError(err).Error("failed to read policies")
		return [][]string{}
	}
	return policies
}

func (p *PolicyServiceImpl) subject(role string) string {
	return domain.RoleOfSubject(role).Subject()
}

func (p *PolicyServiceImpl) persist(msg, subject, resource, action string) error {
	if err := p.enforcer.SavePolicy(); err != nil {
		return fmt.Errorf("failed to save policies: %w", err)
	}
	p.log.WithFields(logrus.Fields{
		"subject":  subject,
		"resource": resource,
		"action":   action,
	}).Info(msg)
	return nil
}

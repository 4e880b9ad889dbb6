package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/you/careauth/domain"
	"gorm.io/gorm"
)

// DefaultPolicies is the route capability table installed when the policy store is empty
var DefaultPolicies = [][]string{
	{domain.RoleDoctor.Subject(), "/authorizations", "POST"},
	{domain.RoleDoctor.Subject(), "/authorizations/:id/verify", "POST"},
	{domain.RoleDoctor.Subject(), "/authorizations/patients", "GET"},
	{domain.RoleDoctor.Subject(), "/patients/:id", "GET"},
	{domain.RolePatient.Subject(), "/patients/:id", "GET"},
	{domain.RoleAdmin.Subject(), "/patients/:id", "GET"},
	{domain.RoleAdmin.Subject(), "/admin/*", "(GET)|(POST)|(DELETE)"},
}

var _ domain.CasbinEnforcer = (*casbin.Enforcer)(nil)

// NewEnforcer builds a Casbin enforcer whose policies live in the database
func NewEnforcer(db *gorm.DB, modelPath string) (*casbin.Enforcer, error) {
	adp, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}
	e, err := casbin.NewEnforcer(modelPath, adp)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load casbin policy: %w", err)
	}
	return e, nil
}

// SeedDefaultPolicies installs DefaultPolicies when no policy exists yet
func SeedDefaultPolicies(e *casbin.Enforcer) error {
	existing, err := e.GetPolicy()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	if _, err := e.AddPolicies(DefaultPolicies); err != nil {
		return fmt.Errorf("failed to seed casbin policies: %w", err)
	}
	return nil
}

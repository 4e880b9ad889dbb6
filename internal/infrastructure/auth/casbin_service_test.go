package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

func setupEnforcerDB(t *testing.T) (*gorm.DB, string) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	modelPath := filepath.Join(t.TempDir(), "rbac_model.conf")
	require.NoError(t, os.WriteFile(modelPath, []byte(testModel), 0o600))
	return db, modelPath
}

func TestSeedDefaultPolicies(t *testing.T) {
	db, modelPath := setupEnforcerDB(t)

	e, err := NewEnforcer(db, modelPath)
	require.NoError(t, err)
	require.NoError(t, SeedDefaultPolicies(e))

	tests := []struct {
		sub, obj, act string
		allowed       bool
	}{
		{"role_doctor", "/authorizations", "POST", true},
		{"role_doctor", "/authorizations/abc/verify", "POST", true},
		{"role_doctor", "/authorizations/patients", "GET", true},
		{"role_doctor", "/patients/12", "GET", true},
		{"role_doctor", "/admin/policies", "GET", false},
		{"role_patient", "/patients/12", "GET", true},
		{"role_patient", "/authorizations", "POST", false},
		{"role_admin", "/admin/policies", "DELETE", true},
		{"role_admin", "/authorizations", "POST", false},
	}

	for _, tt := range tests {
		t.Run(tt.sub+" "+tt.act+" "+tt.obj, func(t *testing.T) {
			ok, err := e.Enforce(tt.sub, tt.obj, tt.act)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, ok)
		})
	}
}

func TestSeedDefaultPolicies_KeepsExistingPolicies(t *testing.T) {
	db, modelPath := setupEnforcerDB(t)

	e, err := NewEnforcer(db, modelPath)
	require.NoError(t, err)
	_, err = e.AddPolicy("role_patient", "/patients/:id", "GET")
	require.NoError(t, err)

	require.NoError(t, SeedDefaultPolicies(e))

	policies, err := e.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, policies, 1)

	reloaded, err := NewEnforcer(db, modelPath)
	require.NoError(t, err)
	policies, err = reloaded.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, policies, 1, "policies must be persisted through the adapter")
}

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/you/careauth/domain"
	"github.com/you/careauth/internal/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}

// asPrincipal stands in for the JWT middleware
func asPrincipal(id uint, role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.PrincipalIDKey, id)
		c.Set(middleware.RoleKey, string(role))
		c.Next()
	}
}

func withClient(clientID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ClientIDKey, clientID)
		c.Next()
	}
}

func perform(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

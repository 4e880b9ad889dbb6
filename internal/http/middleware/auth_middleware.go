package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/you/careauth/domain"
)

// Context keys set by the middlewares
const (
	PrincipalIDKey = "principal_id"
	RoleKey        = "user_role"
	SessionIDKey   = "session_id"
	ClientIDKey    = "client_id"
)

// AuthMiddleware validates the bearer token and requires the login session it
// was issued for to still exist, so logging out revokes the token.
func AuthMiddleware(tokenSvc domain.TokenService, sessionRepo domain.SessionRepository) gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		tokenParts := strings.SplitN(authHeader, " ", 2)
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		claims, err := tokenSvc.ValidateAccessToken(tokenParts[1])
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			case errors.Is(err, domain.ErrTokenInvalid), errors.Is(err, domain.ErrTokenMalformed):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token validation failed"})
			}
			return
		}

		user, err := sessionRepo.Find(c.Request.Context(), claims.SessionID)
		if err != nil || user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session invalid or expired"})
			return
		}
		if user.ID != claims.PrincipalID || user.Role != claims.Role {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session user mismatch"})
			return
		}

		c.Set(PrincipalIDKey, claims.PrincipalID)
		c.Set(RoleKey, string(claims.Role))
		c.Set(SessionIDKey, claims.SessionID)

		c.Next()
	})
}

// PrincipalID returns the authenticated principal id
func PrincipalID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(PrincipalIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// Role returns the authenticated principal role
func Role(c *gin.Context) domain.Role {
	return domain.Role(c.GetString(RoleKey))
}

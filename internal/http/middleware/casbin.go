package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/you/careauth/domain"
)

// CasbinMW checks the route capability table for the authenticated role
type CasbinMW struct {
	policySvc domain.PolicyService
	log       *logrus.Logger
}

// NewCasbinMW creates new casbin middleware wrapper
func NewCasbinMW(policySvc domain.PolicyService, log *logrus.Logger) *CasbinMW {
	return &CasbinMW{policySvc: policySvc, log: log}
}

// Enforce returns the casbin authorization middleware
func (mw *CasbinMW) Enforce() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		role := Role(c)
		if _, ok := PrincipalID(c); !ok || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Principal or role not found in token"})
			return
		}

		path := c.Request.URL.Path
		method := c.Request.Method

		allowed, err := mw.policySvc.CheckPermission(string(role), path, method)
		if err != nil {
			mw.log.WithError(err).WithFields(logrus.Fields{"role": role, "path": path, "method": method}).
				Error("authorization check failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}

		c.Next()
	})
}

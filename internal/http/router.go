package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/you/careauth/internal/http/handlers"
	"github.com/you/careauth/internal/http/middleware"
)

// Handlers groups the route handlers mounted by BuildRouter
type Handlers struct {
	Login          *handlers.LoginHandlers
	Authorizations *handlers.AuthorizationHandlers
	Patients       *handlers.PatientHandlers
	Policies       *handlers.PolicyHandlers
}

func BuildRouter(h Handlers, jwtmw *middleware.AuthMW, cb *middleware.CasbinMW, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	auth := r.Group("/auth", middleware.ClientID())
	auth.POST("/login", h.Login.Login)
	auth.POST("/verify", h.Login.Verify)
	auth.GET("/session", h.Login.Session)
	auth.POST("/logout", h.Login.Logout)

	v := r.Group("/", jwtmw.WithJWT(), cb.Enforce())
	v.POST("/authorizations", h.Authorizations.Request)
	v.POST("/authorizations/:id/verify", h.Authorizations.Verify)
	v.GET("/authorizations/patients", h.Authorizations.Patients)
	v.GET("/patients/:id", h.Patients.Get)

	adm := r.Group("/admin", jwtmw.WithJWT(), cb.Enforce())
	adm.GET("/policies", h.Policies.List)
	adm.POST("/policies", h.Policies.Add)
	adm.DELETE("/policies", h.Policies.Remove)

	return r
}

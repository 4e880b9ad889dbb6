package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/you/careauth/domain"
	"github.com/you/careauth/internal/http/middleware"
)

// LoginHandlers exposes the phone and code login flow
type LoginHandlers struct {
	sessions  domain.LoginSessions
	tokenSvc  domain.TokenService
	accessTTL time.Duration
	log       *logrus.Logger
}

// NewLoginHandlers creates new login handlers
func NewLoginHandlers(sessions domain.LoginSessions, tokenSvc domain.TokenService, accessTTL time.Duration, log *logrus.Logger) *LoginHandlers {
	return &LoginHandlers{
		sessions:  sessions,
		tokenSvc:  tokenSvc,
		accessTTL: accessTTL,
		log:       log,
	}
}

// LoginRequest represents login request
type LoginRequest struct {
	Phone string `json:"phone"`
}

// VerifyRequest represents code verification request
type VerifyRequest struct {
	Code string `json:"code" binding:"required"`
}

// Login handles phone submission
func (h *LoginHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session := h.session(c)
	if err := session.InitiateLogin(c.Request.Context(), req.Phone); err != nil {
		h.fail(c, session, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message": "Verification code sent",
			"state":   session.State(),
		},
	})
}

// Verify handles code submission and issues an access token on success
func (h *LoginHandlers) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session := h.session(c)
	if err := session.VerifyCode(c.Request.Context(), req.Code); err != nil {
		h.fail(c, session, err)
		return
	}

	state := session.State()
	clientID := c.GetString(middleware.ClientIDKey)
	token, err := h.tokenSvc.GenerateAccessToken(state.User, clientID)
	if err != nil {
		h.log.WithError(err).WithField("client_id", clientID).Error("failed to generate access token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   int(h.accessTTL.Seconds()),
			"user":         state.User,
			"state":        state,
		},
	})
}

// Session returns the current login snapshot
func (h *LoginHandlers) Session(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.session(c).State()})
}

// Logout ends the login session of the client
func (h *LoginHandlers) Logout(c *gin.Context) {
	session := h.session(c)
	if err := session.Logout(c.Request.Context()); err != nil {
		h.fail(c, session, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Logged out successfully"}})
}

func (h *LoginHandlers) session(c *gin.Context) domain.LoginSession {
	return h.sessions.Session(c.Request.Context(), c.GetString(middleware.ClientIDKey))
}

func (h *LoginHandlers) fail(c *gin.Context, session domain.LoginSession, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.WithError(err).WithField("client_id", c.GetString(middleware.ClientIDKey)).Error("login operation failed")
	}
	c.JSON(status, gin.H{
		"error": domain.UserMessage(err),
		"state": session.State(),
	})
}

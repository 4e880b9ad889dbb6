package app

import (
	"context"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/you/careauth/domain"
	"github.com/you/careauth/internal/config"
	httpx "github.com/you/careauth/internal/http"
	"github.com/you/careauth/internal/http/handlers"
	"github.com/you/careauth/internal/http/middleware"
	"github.com/you/careauth/internal/infrastructure/audit"
	"github.com/you/careauth/internal/infrastructure/auth"
	"github.com/you/careauth/internal/infrastructure/database"
	"github.com/you/careauth/internal/infrastructure/notifications"
	"github.com/you/careauth/internal/infrastructure/repositories"
	"github.com/you/careauth/internal/services"
)

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config
	Log    *logrus.Logger
	Clock  domain.Clock

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client
	Enforcer    *casbin.Enforcer

	// Repositories
	PrincipalRepo     domain.PrincipalRepository
	PatientRepo       domain.PatientRepository
	AuthorizationRepo domain.AuthorizationRepository
	SessionRepo       domain.SessionRepository
	PairLocker        domain.PairLocker

	// Services
	AuditLogger     domain.AuditLogger
	NotificationSvc domain.NotificationService
	CodeIssuer      domain.CodeIssuer
	CodeHasher      domain.CodeHasher
	TokenSvc        domain.TokenService
	PolicySvc       domain.PolicyService
	LoginManager    *services.LoginManager
	AuthzSvc        domain.AuthorizationService
}

// NewContainer connects to Postgres and Redis and wires every dependency
func NewContainer(cfg *config.Config, log *logrus.Logger) (*Container, error) {
	db, err := database.Open(cfg.DSN)
	if err != nil {
		return nil, err
	}
	rdb := database.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := rdb.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return NewContainerWith(cfg, log, db, rdb.Client, domain.SystemClock{})
}

// NewContainerWith wires every dependency on top of existing connections
func NewContainerWith(cfg *config.Config, log *logrus.Logger, db *gorm.DB, rdb *redis.Client, clock domain.Clock) (*Container, error) {
	c := &Container{
		Config:      cfg,
		Log:         log,
		Clock:       clock,
		DB:          db,
		RedisClient: rdb,
	}

	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}

	c.initRepositories()

	if err := c.initPolicies(); err != nil {
		return nil, err
	}

	c.initServices()

	return c, nil
}

func (c *Container) initRepositories() {
	c.PrincipalRepo = repositories.NewPrincipalRepository(c.DB)
	c.PatientRepo = repositories.NewPatientRepository(c.DB)
	c.AuthorizationRepo = repositories.NewAuthorizationRepository(c.DB)
	c.SessionRepo = repositories.NewSessionRepository(c.RedisClient, c.Config.SessionTTL)
	c.PairLocker = repositories.NewRedisPairLocker(c.RedisClient, c.Config.AuthzLockTTL)
}

func (c *Container) initPolicies() error {
	e, err := auth.NewEnforcer(c.DB, c.Config.CasbinModelPath)
	if err != nil {
		return err
	}
	if err := auth.SeedDefaultPolicies(e); err != nil {
		return err
	}
	c.Enforcer = e
	c.PolicySvc = services.NewPolicyService(e, c.Log)
	return nil
}

func (c *Container) initServices() {
	c.AuditLogger = audit.NewLogrusAuditLogger(c.Log)
	c.NotificationSvc = notifications.NewTwilioService(
		c.Config.TwilioSID,
		c.Config.TwilioToken,
		c.Config.TwilioFrom,
		c.Log,
	)
	c.CodeHasher = auth.NewCodeHasher()
	c.TokenSvc = auth.NewJWTService(c.Config.JWTSecret, c.Config.JWTIssuer, c.Config.AccessTTL)

	c.CodeIssuer = services.NewCodeIssuer(c.NotificationSvc, c.Clock, c.Log, services.CodeIssuerConfig{
		LoginCodeLength:         c.Config.LoginCodeLength,
		LoginTTL:                c.Config.LoginCodeTTL,
		DemoLoginCode:           c.Config.LoginDemoCode,
		AuthorizationCodeLength: c.Config.AuthzCodeLength,
		AuthorizationTTL:        c.Config.AuthzCodeTTL,
	})

	c.LoginManager = services.NewLoginManager(
		c.PrincipalRepo,
		c.CodeIssuer,
		c.SessionRepo,
		c.AuditLogger,
		c.Clock,
		c.Log,
		services.LoginConfig{
			MaxAttempts:   c.Config.LoginMaxAttempts,
			Tick:          c.Config.LoginTick,
			SweepInterval: c.Config.LoginSweep,
		},
	)

	c.AuthzSvc = services.NewAuthorizationService(
		c.AuthorizationRepo,
		c.PatientRepo,
		c.PairLocker,
		c.CodeIssuer,
		c.CodeHasher,
		c.AuditLogger,
		c.Clock,
		c.Log,
		services.AuthorizationConfig{MaxAttempts: c.Config.AuthzMaxAttempts},
	)
}

// Router builds the HTTP router over the container's services
func (c *Container) Router() *gin.Engine {
	h := httpx.Handlers{
		Login:          handlers.NewLoginHandlers(c.LoginManager, c.TokenSvc, c.Config.AccessTTL, c.Log),
		Authorizations: handlers.NewAuthorizationHandlers(c.AuthzSvc, c.Log),
		Patients:       handlers.NewPatientHandlers(c.PatientRepo, c.PrincipalRepo, c.AuthzSvc, c.AuditLogger, c.Log),
		Policies:       handlers.NewPolicyHandlers(c.PolicySvc),
	}
	jwtMW := middleware.NewAuthMW(c.TokenSvc, c.SessionRepo)
	casbinMW := middleware.NewCasbinMW(c.PolicySvc, c.Log)

	return httpx.BuildRouter(h, jwtMW, casbinMW, c.Log)
}

// Close stops login countdowns and closes all connections
func (c *Container) Close() error {
	if c.LoginManager != nil {
		c.LoginManager.Close()
	}

	if c.RedisClient != nil {
		c.RedisClient.Close()
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}

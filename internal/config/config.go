package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yml"

type AppConfig struct {
	Port     int    `yaml:"port"`
	GinMode  string `yaml:"gin_mode"`
	LogLevel string `yaml:"log_level"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret    string `yaml:"secret"`
	Issuer    string `yaml:"issuer"`
	AccessTTL string `yaml:"access_ttl"`
}

type LoginConfig struct {
	CodeLength  int    `yaml:"code_length"`
	CodeTTL     string `yaml:"code_ttl"`
	DemoCode    string `yaml:"demo_code"`
	Tick        string `yaml:"tick"`
	MaxAttempts int    `yaml:"max_attempts"`
	// SweepInterval is how often abandoned login flows are dropped from memory
	SweepInterval string `yaml:"sweep_interval"`
}

type AuthorizationConfig struct {
	CodeLength  int    `yaml:"code_length"`
	CodeTTL     string `yaml:"code_ttl"`
	MaxAttempts int    `yaml:"max_attempts"`
	LockTTL     string `yaml:"lock_ttl"`
}

type SessionConfig struct {
	TTL string `yaml:"ttl"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type ConfigFile struct {
	App           AppConfig           `yaml:"app"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	JWT           JWTConfig           `yaml:"jwt"`
	Login         LoginConfig         `yaml:"login"`
	Authorization AuthorizationConfig `yaml:"authorization"`
	Session       SessionConfig       `yaml:"session"`
	Twilio        TwilioConfig        `yaml:"twilio"`
	Casbin        CasbinConfig        `yaml:"casbin"`
}

type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTIssuer string
	AccessTTL time.Duration

	LoginCodeLength  int
	LoginCodeTTL     time.Duration
	LoginDemoCode    string
	LoginTick        time.Duration
	LoginMaxAttempts int
	LoginSweep       time.Duration

	AuthzCodeLength  int
	AuthzCodeTTL     time.Duration
	AuthzMaxAttempts int
	AuthzLockTTL     time.Duration

	SessionTTL time.Duration

	TwilioSID   string
	TwilioToken string
	TwilioFrom  string

	CasbinModelPath string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// envSet is like env but an explicitly empty variable still wins over def.
func envSet(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}

// Load reads .env (if present), the YAML config file and environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFile(env("CAREAUTH_CONFIG", defaultConfigPath))
}

// LoadFile builds a Config from the YAML file at path with environment overrides applied.
func LoadFile(path string) (*Config, error) {
	configFile, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	applyDefaults(configFile)

	cfg := &Config{
		Port:     env("PORT", strconv.Itoa(configFile.App.Port)),
		GinMode:  configFile.App.GinMode,
		LogLevel: env("LOG_LEVEL", configFile.App.LogLevel),

		DSN:           env("DATABASE_DSN", configFile.Database.DSN),
		RedisAddr:     env("REDIS_ADDR", configFile.Redis.Addr),
		RedisPassword: env("REDIS_PASSWORD", configFile.Redis.Password),
		RedisDB:       configFile.Redis.DB,

		JWTSecret: env("JWT_SECRET", configFile.JWT.Secret),
		JWTIssuer: configFile.JWT.Issuer,

		LoginCodeLength:  configFile.Login.CodeLength,
		LoginDemoCode:    envSet("LOGIN_DEMO_CODE", configFile.Login.DemoCode),
		LoginMaxAttempts: configFile.Login.MaxAttempts,

		AuthzCodeLength:  configFile.Authorization.CodeLength,
		AuthzMaxAttempts: configFile.Authorization.MaxAttempts,

		TwilioSID:   env("TWILIO_ACCOUNT_SID", configFile.Twilio.AccountSID),
		TwilioToken: env("TWILIO_AUTH_TOKEN", configFile.Twilio.AuthToken),
		TwilioFrom:  env("TWILIO_FROM_NUMBER", configFile.Twilio.FromNumber),

		CasbinModelPath: configFile.Casbin.ModelPath,
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"JWT access TTL", configFile.JWT.AccessTTL, &cfg.AccessTTL},
		{"login code TTL", configFile.Login.CodeTTL, &cfg.LoginCodeTTL},
		{"login tick", configFile.Login.Tick, &cfg.LoginTick},
		{"login sweep interval", configFile.Login.SweepInterval, &cfg.LoginSweep},
		{"authorization code TTL", configFile.Authorization.CodeTTL, &cfg.AuthzCodeTTL},
		{"authorization lock TTL", configFile.Authorization.LockTTL, &cfg.AuthzLockTTL},
		{"session TTL", configFile.Session.TTL, &cfg.SessionTTL},
	}

	for _, d := range durations {
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if cfg.LoginMaxAttempts < 0 || cfg.AuthzMaxAttempts < 0 {
		return nil, fmt.Errorf("max attempts must not be negative")
	}

	return cfg, nil
}

func applyDefaults(c *ConfigFile) {
	if c.App.Port == 0 {
		c.App.Port = 8080
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.Login.CodeLength == 0 {
		c.Login.CodeLength = 6
	}
	if c.Login.CodeTTL == "" {
		c.Login.CodeTTL = "5m"
	}
	if c.Login.Tick == "" {
		c.Login.Tick = "1s"
	}
	if c.Login.SweepInterval == "" {
		c.Login.SweepInterval = "1m"
	}
	if c.Authorization.CodeLength == 0 {
		c.Authorization.CodeLength = 4
	}
	if c.Authorization.CodeTTL == "" {
		c.Authorization.CodeTTL = "15m"
	}
	if c.Authorization.LockTTL == "" {
		c.Authorization.LockTTL = "10s"
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "168h"
	}
	if c.Casbin.ModelPath == "" {
		c.Casbin.ModelPath = "config/rbac_model.conf"
	}
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}

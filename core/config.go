package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// FallbackSecretKey is only tolerated outside PROD.
const FallbackSecretKey = "your-secret-key"

var errFallbackSecret = errors.New("JWT_SECRET must be set in production")

type (
	Config struct {
		AppName          string
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		WorkDir          string
		SecretKey        string
		FrontendBaseURL  string
		SendgridApiKey   string
		RollbarToken     string
		defaultFromEmail string

		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Admin    AdminConfig
		Export   ExportConfig
		SMTP     SMTPConfig
	}

	ServerConfig struct {
		Address            string
		Host               string
		DebugHost          string
		JWTExpirationDelta time.Duration
		ShutdownTimeout    time.Duration
		EnforceAdminAuth   bool
		DisableReqLogs     bool
		CORSOrigins        []string
		TrustedProxies     []string // IPs or CIDRs allowed to set X-Forwarded-For
		LoginMaxAttempts   int
		LoginWindow        time.Duration
	}

	DatabaseConfig struct {
		URI     string
		Name    string
		Timeout time.Duration
	}

	RedisConfig struct {
		Address  string
		Password string
		DB       int
	}

	AdminConfig struct {
		Email        string
		Password     string
		PasswordHash string
	}

	ExportConfig struct {
		TimeZone string
	}

	SMTPConfig struct {
		Host     string
		Port     int
		User     string
		Password string
	}
)

// NewConfig loads config/.env.<env> (if any) then reads settings from the environment.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "FindMyTutor")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", FallbackSecretKey)
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "FindMyTutor <noreply@findmytutor.com>")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.jwtExpirationDelta", time.Hour)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.enforceAdminAuth", true)
	v.SetDefault("server.corsOrigins", []string{"http://localhost:3000"})
	v.SetDefault("server.loginMaxAttempts", 5)
	v.SetDefault("server.loginWindow", 15*time.Minute)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "findmytutor")
	v.SetDefault("database.timeout", 10*time.Second)
	v.SetDefault("admin.email", "admin@findmytutor.com")
	v.SetDefault("admin.password", "anas")
	v.SetDefault("export.timeZone", "UTC")
	v.SetDefault("smtp.port", 587)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "PROD":
		v.SetDefault("debug", false)
	}

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	bindEnv(v, map[string]string{
		"debug":                     "DEBUG",
		"build":                     "BUILD",
		"secretKey":                 "JWT_SECRET",
		"frontendBaseURL":           "BASE_URL",
		"defaultFromEmail":          "DEFAULT_FROM_EMAIL",
		"sendgridApiKey":            "SENDGRID_API_KEY",
		"rollbarToken":              "ROLLBAR_TOKEN",
		"server.address":            "ADDRESS",
		"server.host":               "HOST",
		"server.debugHost":          "DEBUG_HOST",
		"server.jwtExpirationDelta": "JWT_EXPIRATION_DELTA",
		"server.shutdownTimeout":    "SHUTDOWN_TIMEOUT",
		"server.enforceAdminAuth":   "ENFORCE_ADMIN_AUTH",
		"server.disableReqLogs":     "DISABLE_REQUEST_LOGS",
		"server.corsOrigins":        "CORS_ORIGINS",
		"server.trustedProxies":     "TRUSTED_PROXIES",
		"server.loginMaxAttempts":   "LOGIN_MAX_ATTEMPTS",
		"server.loginWindow":        "LOGIN_WINDOW",
		"database.uri":              "MONGODB_URI",
		"database.name":             "MONGODB_DATABASE",
		"database.timeout":          "MONGODB_TIMEOUT",
		"redis.address":             "REDIS_ADDRESS",
		"redis.password":            "REDIS_PASSWORD",
		"redis.db":                  "REDIS_DB",
		"admin.email":               "ADMIN_EMAIL",
		"admin.password":            "ADMIN_PASSWORD",
		"admin.passwordHash":        "ADMIN_PASSWORD_HASH",
		"export.timeZone":           "EXPORT_TIME_ZONE",
		"smtp.host":                 "SMTP_HOST",
		"smtp.port":                 "SMTP_PORT",
		"smtp.user":                 "SMTP_USER",
		"smtp.password":             "SMTP_PASSWORD",
	})

	return &Config{
		AppName:          v.GetString("appName"),
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		WorkDir:          workDir,
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Address:            v.GetString("server.address"),
			Host:               v.GetString("server.host"),
			DebugHost:          v.GetString("server.debugHost"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			EnforceAdminAuth:   v.GetBool("server.enforceAdminAuth"),
			DisableReqLogs:     v.GetBool("server.disableReqLogs"),
			CORSOrigins:        v.GetStringSlice("server.corsOrigins"),
			TrustedProxies:     v.GetStringSlice("server.trustedProxies"),
			LoginMaxAttempts:   v.GetInt("server.loginMaxAttempts"),
			LoginWindow:        v.GetDuration("server.loginWindow"),
		},
		Database: DatabaseConfig{
			URI:     v.GetString("database.uri"),
			Name:    v.GetString("database.name"),
			Timeout: v.GetDuration("database.timeout"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Admin: AdminConfig{
			Email:        v.GetString("admin.email"),
			Password:     v.GetString("admin.password"),
			PasswordHash: v.GetString("admin.passwordHash"),
		},
		Export: ExportConfig{
			TimeZone: v.GetString("export.timeZone"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("smtp.host"),
			Port:     v.GetInt("smtp.port"),
			User:     v.GetString("smtp.user"),
			Password: v.GetString("smtp.password"),
		},
	}
}

func bindEnv(v *viper.Viper, keys map[string]string) {
	for key, env := range keys {
		_ = v.BindEnv(key, env)
	}
}

// DefaultFromEmail parses the configured sender address.
// An unparsable value falls back to a bare address.
func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Address: c.defaultFromEmail}
	}
	return *addr
}

// UsesFallbackSecret reports whether tokens are signed with the well-known fallback key.
func (c *Config) UsesFallbackSecret() bool {
	return c.SecretKey == "" || c.SecretKey == FallbackSecretKey
}

// CheckSecrets refuses the fallback signing key in PROD.
func (c *Config) CheckSecrets() error {
	if c.Env == "PROD" && c.UsesFallbackSecret() {
		return errFallbackSecret
	}
	return nil
}

// ExportLocation returns the time zone used to render assignment dates in exports.
func (c *Config) ExportLocation() *time.Location {
	loc, err := time.LoadLocation(c.Export.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NewTestConfig returns the settings used by package tests.
func NewTestConfig() *Config {
	return &Config{
		AppName:          "FindMyTutor",
		Env:              "TEST",
		Build:            "test",
		TestMode:         true,
		SecretKey:        "test-secret",
		FrontendBaseURL:  "http://localhost:3000",
		defaultFromEmail: "noreply@findmytutor.com",
		Server: ServerConfig{
			JWTExpirationDelta: time.Hour,
			ShutdownTimeout:    time.Second,
			EnforceAdminAuth:   true,
			DisableReqLogs:     true,
			CORSOrigins:        []string{"http://localhost:3000"},
			LoginMaxAttempts:   5,
			LoginWindow:        15 * time.Minute,
		},
		Database: DatabaseConfig{Name: "findmytutor_test", Timeout: 5 * time.Second},
		Admin:    AdminConfig{Email: "admin@findmytutor.com", Password: "anas"},
		Export:   ExportConfig{TimeZone: "UTC"},
	}
}

package core

import (
	"testing"
	"time"
)

func TestConfig_CheckSecrets(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		secret   string
		fallback bool
		wantErr  bool
	}{
		{name: "dev with fallback", env: "DEV", secret: FallbackSecretKey, fallback: true},
		{name: "dev without secret", env: "DEV", fallback: true},
		{name: "prod with fallback", env: "PROD", secret: FallbackSecretKey, fallback: true, wantErr: true},
		{name: "prod without secret", env: "PROD", fallback: true, wantErr: true},
		{name: "prod with secret", env: "PROD", secret: "9f2c1d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &Config{Env: tt.env, SecretKey: tt.secret}
			if got := conf.UsesFallbackSecret(); got != tt.fallback {
				t.Errorf("UsesFallbackSecret() = %v, want %v", got, tt.fallback)
			}
			if err := conf.CheckSecrets(); (err != nil) != tt.wantErr {
				t.Errorf("CheckSecrets() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewConfig(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("LOGIN_WINDOW", "5m")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1 10.1.0.0/16")

	conf := NewConfig()
	if conf.Env != "TEST" || !conf.TestMode {
		t.Errorf("Env = %s, TestMode = %v", conf.Env, conf.TestMode)
	}
	if conf.SecretKey != "from-env" {
		t.Errorf("SecretKey = %s", conf.SecretKey)
	}
	if conf.Database.URI != "mongodb://db:27017" {
		t.Errorf("Database.URI = %s", conf.Database.URI)
	}
	if conf.Server.LoginWindow != 5*time.Minute {
		t.Errorf("Server.LoginWindow = %v", conf.Server.LoginWindow)
	}
	if got := conf.Server.TrustedProxies; len(got) != 2 || got[0] != "10.0.0.1" || got[1] != "10.1.0.0/16" {
		t.Errorf("Server.TrustedProxies = %v", got)
	}
	if conf.Server.JWTExpirationDelta != time.Hour || !conf.Server.EnforceAdminAuth {
		t.Errorf("Server = %+v", conf.Server)
	}
	if from := conf.DefaultFromEmail(); from.Address != "noreply@findmytutor.com" {
		t.Errorf("DefaultFromEmail() = %v", from)
	}
}

func TestConfig_ExportLocation(t *testing.T) {
	conf := &Config{Export: ExportConfig{TimeZone: "Not/AZone"}}
	if conf.ExportLocation() != time.UTC {
		t.Error("unknown zone should fall back to UTC")
	}
}

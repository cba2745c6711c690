package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("AUTH_MODE", "")
	t.Setenv("SESSION_IDLE_MINUTES", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "")
	t.Setenv("PASSWORD_ALGORITHM", "")

	cfg := Load()

	if cfg.Env != "dev" || cfg.AuthMode != AuthModeToken {
		t.Fatalf("unexpected defaults: env=%q mode=%q", cfg.Env, cfg.AuthMode)
	}
	if cfg.SessionIdle != 4*time.Hour {
		t.Fatalf("idle default: got %v", cfg.SessionIdle)
	}
	if !strings.Contains(cfg.DBURL, "@db:5432/") {
		t.Fatalf("db url: %s", cfg.DBURL)
	}
	if cfg.PasswordAlgo != "argon2id" {
		t.Fatalf("password algorithm default: %q", cfg.PasswordAlgo)
	}
}

func TestLoadParsesValues(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_TTL_MINUTES", "15")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Fatalf("port: %d", cfg.Port)
	}
	if cfg.JWTTTL != 15*time.Minute {
		t.Fatalf("ttl: %v", cfg.JWTTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("cors: %#v", cfg.CORSOrigins)
	}
	if cfg.RedisDB != 0 {
		t.Fatalf("bad int must fall back to default, got %d", cfg.RedisDB)
	}
}

func validConfig() Config {
	return Config{
		Env:          "dev",
		Store:        BackendMemory,
		AuthMode:     AuthModeToken,
		JWTSecret:    "secret",
		JWTTTL:       time.Hour,
		SessionStore: BackendMemory,
		SessionIdle:  4 * time.Hour,
		PasswordAlgo: PasswordArgon2id,
		AvatarMaxPx:  512,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid token mode", mutate: func(c *Config) {}},
		{name: "valid session mode", mutate: func(c *Config) { c.AuthMode = AuthModeSession; c.JWTSecret = "" }},
		{name: "unknown mode", mutate: func(c *Config) { c.AuthMode = "both" }, wantErr: "unknown AUTH_MODE"},
		{name: "token without secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET is required"},
		{name: "short secret in prod", mutate: func(c *Config) { c.Env = "prod"; c.Store = BackendPostgres }, wantErr: "at least 32 bytes"},
		{name: "memory sessions in prod", mutate: func(c *Config) {
			c.Env = "prod"
			c.AuthMode = AuthModeSession
		}, wantErr: "not allowed in prod"},
		{name: "unknown session backend", mutate: func(c *Config) {
			c.AuthMode = AuthModeSession
			c.SessionStore = "etcd"
		}, wantErr: "unknown SESSION_BACKEND"},
		{name: "bcrypt passwords", mutate: func(c *Config) { c.PasswordAlgo = PasswordBcrypt }},
		{name: "unknown password algorithm", mutate: func(c *Config) { c.PasswordAlgo = "scrypt" }, wantErr: "unknown PASSWORD_ALGORITHM"},
		{name: "unknown store", mutate: func(c *Config) { c.Store = "mysql" }, wantErr: "unknown STORE"},
		{name: "half admin seed", mutate: func(c *Config) { c.AdminEmail = "root@x.com" }, wantErr: "set together"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AuthModeToken   = "token"
	AuthModeSession = "session"

	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"

	PasswordArgon2id = "argon2id"
	PasswordBcrypt   = "bcrypt"
)

type Config struct {
	Env     string
	Version string
	Port    int
	DBURL string

	DBMaxConns int32
	// Store selects the account directory backend: postgres or memory.
	Store string

	AuthMode      string
	JWTSecret     string
	JWTIssuer     string
	JWTAudience   string
	JWTTTL        time.Duration
	SessionStore  string
	SessionIdle   time.Duration
	PasswordAlgo  string
	LoginRateMax  int
	LoginRateSpan time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3PublicURL    string
	S3AccessKey    string
	S3SecretKey    string
	AvatarMaxPx    int
	MaxUploadBytes int64

	CORSOrigins  []string
	OTLPEndpoint string

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load reads .env when present, then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:        getEnv("APP_ENV", "dev"),
		Version:    getEnv("SERVICE_VERSION", "dev"),
		Port:       getEnvInt("PORT", 8080),
		DBURL:      buildDBURL(),
		DBMaxConns: int32(getEnvInt("DB_MAX_CONNS", 5)),
		Store:      getEnv("STORE", BackendPostgres),

		AuthMode:      getEnv("AUTH_MODE", AuthModeToken),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTIssuer:     getEnv("JWT_ISSUER", "socialhub"),
		JWTAudience:   getEnv("JWT_AUDIENCE", "socialhub-web"),
		JWTTTL:        time.Duration(getEnvInt("JWT_TTL_MINUTES", 60)) * time.Minute,
		SessionStore:  getEnv("SESSION_BACKEND", BackendRedis),
		SessionIdle:   time.Duration(getEnvInt("SESSION_IDLE_MINUTES", 240)) * time.Minute,
		PasswordAlgo:  getEnv("PASSWORD_ALGORITHM", PasswordArgon2id),
		LoginRateMax:  getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateSpan: time.Duration(getEnvInt("LOGIN_RATE_WINDOW_SECONDS", 60)) * time.Second,

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3PublicURL:    os.Getenv("S3_PUBLIC_URL"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretKey:    os.Getenv("S3_SECRET_ACCESS_KEY"),
		AvatarMaxPx:    getEnvInt("AVATAR_MAX_PX", 512),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 5<<20)),

		CORSOrigins:  splitList(os.Getenv("CORS_ORIGINS")),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
	}
}

// Validate rejects combinations the process cannot start with.
func (c Config) Validate() error {
	var errs []error

	switch c.AuthMode {
	case AuthModeToken:
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required when AUTH_MODE=token"))
		} else if len(c.JWTSecret) < 32 && c.Env == "prod" {
			errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes in prod"))
		}
	case AuthModeSession:
		if c.SessionStore != BackendRedis && c.SessionStore != BackendMemory {
			errs = append(errs, fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionStore))
		}
		if c.SessionStore == BackendMemory && c.Env == "prod" {
			errs = append(errs, errors.New("SESSION_BACKEND=memory is not allowed in prod"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode))
	}

	if c.Store != BackendPostgres && c.Store != BackendMemory {
		errs = append(errs, fmt.Errorf("unknown STORE %q", c.Store))
	}

	if c.PasswordAlgo != PasswordArgon2id && c.PasswordAlgo != PasswordBcrypt {
		errs = append(errs, fmt.Errorf("unknown PASSWORD_ALGORITHM %q", c.PasswordAlgo))
	}

	if c.SessionIdle <= 0 {
		errs = append(errs, errors.New("SESSION_IDLE_MINUTES must be positive"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL_MINUTES must be positive"))
	}
	if c.AvatarMaxPx <= 0 {
		errs = append(errs, errors.New("AVATAR_MAX_PX must be positive"))
	}

	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together"))
	}

	return errors.Join(errs...)
}

func (c Config) SecureCookies() bool {
	return c.Env == "prod"
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "socialhub")
	pass := getEnv("DB_PASSWORD", "socialhub")
	name := getEnv("DB_NAME", "socialhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout bounds a request-scoped operation while keeping the request's
// values (trace span, identity).
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

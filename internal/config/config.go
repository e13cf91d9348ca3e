package config

import (
	"context"
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MemoryDBURL selects the in-memory stores instead of Postgres.
const MemoryDBURL = "memory"

type Config struct {
	Env         string
	Port        int
	DBURL       string
	ServiceName string

	JWTSecret     string
	JWTTTLMinutes int

	Models []string

	AdminUsername string
	AdminPassword string
	AdminRole     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SigninRateLimit         int
	SigninRateWindowSeconds int

	OTELEndpoint string

	CORSAllowedOrigins []string
	MaxBodyBytes       int64
}

func Load() Config {
	// a missing .env is fine, the real environment wins anyway
	_ = godotenv.Load()

	return Config{
		Env:         getEnv("APP_ENV", "dev"),
		Port:        getEnvInt("PORT", 8080),
		DBURL:       buildDBURL(),
		ServiceName: getEnv("OTEL_SERVICE_NAME", "modelhub"),

		JWTSecret:     getEnv("JWT_SECRET", os.Getenv("SECRET")),
		JWTTTLMinutes: getEnvInt("JWT_TTL_MINUTES", 60),

		Models: getEnvList("MODELS", []string{"food", "clothes"}),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminRole:     getEnv("ADMIN_ROLE", "admin"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SigninRateLimit:         getEnvInt("SIGNIN_RATE_LIMIT", 10),
		SigninRateWindowSeconds: getEnvInt("SIGNIN_RATE_WINDOW_SECONDS", 60),

		OTELEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", nil),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
	}
}

// Validate reports configuration that would make the process unsafe to run.
func (c Config) Validate() error {
	if c.JWTSecret == "" && c.Env != "dev" && c.Env != "test" {
		return errors.New("JWT_SECRET must be set outside dev")
	}
	if len(c.Models) == 0 {
		return errors.New("MODELS must name at least one collection")
	}
	if c.JWTTTLMinutes < 0 {
		return errors.New("JWT_TTL_MINUTES must be 0 (no expiry) or positive")
	}
	if c.Port < 0 || c.Port > 65535 {
		return errors.New("PORT out of range")
	}
	return nil
}

// UsesMemoryStore is true when no database should be touched.
func (c Config) UsesMemoryStore() bool {
	return c.DBURL == MemoryDBURL
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTTTLMinutes) * time.Minute
}

func (c Config) SigninRateWindow() time.Duration {
	return time.Duration(c.SigninRateWindowSeconds) * time.Second
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "modelhub")
	pass := getEnv("DB_PASSWORD", "modelhub")
	name := getEnv("DB_NAME", "modelhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
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
			log.Printf("config: %s=%q is not an integer, using %d", key, v, fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}

	return out
}

package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Mode             string
	Environment      string
	HTTPAddr         string
	AuthCookieSecure bool

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	RateLimit RateLimitConfig

	Bootstrap BootstrapConfig
}

// RateLimitConfig controls the redis-backed limiter on the document render path.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RenderRate  float64
	RenderBurst int
	SendLockTTL int // seconds
}

// BootstrapConfig controls first-run seeding.
type BootstrapConfig struct {
	EnsureDefaultAdmin bool
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	return Config{
		AppName:          getenv("APP_NAME", "cotiza"),
		AppVersion:       getenv("APP_VERSION", "dev"),
		Mode:             getenv("APP_MODE", "release"),
		Environment:      getenv("APP_ENV", "development"),
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		AuthCookieSecure: getenvBool("AUTH_COOKIE_SECURE", false),

		OTLPEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		DBType:            getenv("DB_TYPE", "postgres"),
		DBHost:            getenv("DB_HOST", "localhost"),
		DBPort:            getenv("DB_PORT", "5432"),
		DBName:            getenv("DB_NAME", "cotiza"),
		DBUser:            getenv("DB_USER", "cotiza"),
		DBPassword:        getenv("DB_PASSWORD", ""),
		DBSSLMode:         getenv("DB_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DB_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DB_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DB_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime: getenvInt("DB_CONN_MAX_IDLE_TIME", 300),

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenvInt("SMTP_PORT", 587),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", "cotizaciones@cotiza.local"),

		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     getenv("RATE_LIMIT_REDIS_ADDR", ""),
			RedisPassword: getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			RenderRate:    getenvFloat("RATE_LIMIT_RENDER_RATE", 1),
			RenderBurst:   getenvInt("RATE_LIMIT_RENDER_BURST", 5),
			SendLockTTL:   getenvInt("RATE_LIMIT_SEND_LOCK_TTL", 30),
		},

		Bootstrap: BootstrapConfig{
			EnsureDefaultAdmin: getenvBool("BOOTSTRAP_DEFAULT_ADMIN", true),
		},
	}
}

func (c Config) IsDev() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getenv(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

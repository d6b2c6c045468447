package config

import (
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
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Port           string
	Environment    string
	LogLevel       slog.Level
	DatabaseURL    string
	StoreDriver    string
	RedisURL       string
	AllowedOrigins []string

	Auth   AuthConfig
	Exam   ExamConfig
	Events EventsConfig
	Seed   SeedConfig
}

type AuthConfig struct {
	JWTSecret       string
	StudentTokenTTL time.Duration
	AdminTokenTTL   time.Duration
	CookieSecure    bool
}

// ExamConfig toggles the optional submission checks. Both are off by default.
type ExamConfig struct {
	EnforceAttemptLimit bool
	EnforceDeadline     bool
	DeadlineGrace       time.Duration
}

type EventsConfig struct {
	KafkaBrokers []string
	TopicPrefix  string
}

// SeedConfig holds the bootstrap admin credentials. Seeding is skipped when
// either value is empty.
type SeedConfig struct {
	AdminUsername string
	AdminPassword string
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "5000"),
		Environment: getEnv("APP_ENV", "development"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		RedisURL:    os.Getenv("REDIS_URL"),
		Events: EventsConfig{
			KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
			TopicPrefix:  getEnv("EVENTS_TOPIC_PREFIX", "elamid."),
		},
		Seed: SeedConfig{
			AdminUsername: os.Getenv("ADMIN_USERNAME"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		},
	}

	var err error
	if cfg.LogLevel, err = parseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	cfg.Auth = AuthConfig{JWTSecret: os.Getenv("JWT_SECRET")}
	if cfg.Auth.StudentTokenTTL, err = getDuration("STUDENT_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Auth.AdminTokenTTL, err = getDuration("ADMIN_TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Auth.CookieSecure, err = getBool("COOKIE_SECURE", cfg.IsProduction()); err != nil {
		return nil, err
	}

	if cfg.Exam.EnforceAttemptLimit, err = getBool("EXAM_ENFORCE_ATTEMPTS", false); err != nil {
		return nil, err
	}
	if cfg.Exam.EnforceDeadline, err = getBool("EXAM_ENFORCE_DEADLINE", false); err != nil {
		return nil, err
	}
	if cfg.Exam.DeadlineGrace, err = getDuration("EXAM_DEADLINE_GRACE", 2*time.Minute); err != nil {
		return nil, err
	}

	cfg.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	if client := os.Getenv("CLIENT_URL"); client != "" {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, splitList(client)...)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		c.Auth.JWTSecret = "development-secret"
	}
	if c.Exam.DeadlineGrace < 0 {
		return errors.New("EXAM_DEADLINE_GRACE must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

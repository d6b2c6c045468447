package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("CLIENT_URL", "")

	cfg, err := fromEnv()
	if err != nil {
		t.Fatalf("fromEnv() error = %v", err)
	}

	if cfg.Port != "5000" {
		t.Errorf("Port = %q, want 5000", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.Auth.StudentTokenTTL != 7*24*time.Hour || cfg.Auth.AdminTokenTTL != 24*time.Hour {
		t.Errorf("token ttls = %v/%v", cfg.Auth.StudentTokenTTL, cfg.Auth.AdminTokenTTL)
	}
	if cfg.Auth.JWTSecret == "" {
		t.Error("development config should fall back to a secret")
	}
	if cfg.Exam.EnforceAttemptLimit || cfg.Exam.EnforceDeadline {
		t.Error("exam enforcement should be off by default")
	}
	if cfg.Exam.DeadlineGrace != 2*time.Minute {
		t.Errorf("DeadlineGrace = %v, want 2m", cfg.Exam.DeadlineGrace)
	}
	if cfg.Events.TopicPrefix != "elamid." {
		t.Errorf("TopicPrefix = %q", cfg.Events.TopicPrefix)
	}
	if len(cfg.Events.KafkaBrokers) != 0 {
		t.Errorf("KafkaBrokers = %v, want none", cfg.Events.KafkaBrokers)
	}
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "postgres without url", env: map[string]string{"STORE_DRIVER": "postgres", "DATABASE_URL": ""}},
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "mongo"}},
		{name: "production without secret", env: map[string]string{"STORE_DRIVER": "memory", "APP_ENV": "production", "JWT_SECRET": ""}},
		{name: "bad bool", env: map[string]string{"STORE_DRIVER": "memory", "EXAM_ENFORCE_ATTEMPTS": "maybe"}},
		{name: "bad duration", env: map[string]string{"STORE_DRIVER": "memory", "EXAM_DEADLINE_GRACE": "soon"}},
		{name: "bad level", env: map[string]string{"STORE_DRIVER": "memory", "LOG_LEVEL": "chatty"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := fromEnv(); err == nil {
				t.Error("fromEnv() expected error")
			}
		})
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("EXAM_ENFORCE_DEADLINE", "true")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CLIENT_URL", "https://elamid.example")

	cfg, err := fromEnv()
	if err != nil {
		t.Fatalf("fromEnv() error = %v", err)
	}
	if cfg.StoreDriver != StoreDriverMemory {
		t.Errorf("StoreDriver = %q", cfg.StoreDriver)
	}
	if len(cfg.Events.KafkaBrokers) != 2 || cfg.Events.KafkaBrokers[1] != "kafka-2:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.Events.KafkaBrokers)
	}
	if !cfg.Exam.EnforceDeadline {
		t.Error("EnforceDeadline should be on")
	}
	if !cfg.Auth.CookieSecure {
		t.Error("production cookies should be secure by default")
	}
	if got := cfg.AllowedOrigins[len(cfg.AllowedOrigins)-1]; got != "https://elamid.example" {
		t.Errorf("last allowed origin = %q", got)
	}
}

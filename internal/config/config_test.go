package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "JWT_SECRET", "ALLOWED_ORIGINS", "KAFKA_BROKERS", "KAFKA_TOPIC", "AUTO_APPROVE", "SERVICE_NAME", "OTEL_EXPORTER_OTLP_ENDPOINT"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != "8081" {
		t.Errorf("port: got %q", cfg.Port)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("database url should default to empty, got %q", cfg.DatabaseURL)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Errorf("kafka brokers: got %v", cfg.KafkaBrokers)
	}
	if cfg.AutoApprove {
		t.Error("auto approve should default to false")
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:5173" {
		t.Errorf("allowed origins: got %v", cfg.AllowedOrigins)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("AUTO_APPROVE", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://partner.example.com")

	cfg := Load()
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Errorf("kafka brokers: got %v", cfg.KafkaBrokers)
	}
	if !cfg.AutoApprove {
		t.Error("auto approve should be true")
	}
	if cfg.AllowedOrigins[0] != "https://partner.example.com" {
		t.Errorf("allowed origins: got %v", cfg.AllowedOrigins)
	}
}

func TestGetBool_Invalid(t *testing.T) {
	t.Setenv("AUTO_APPROVE", "maybe")
	if getBool("AUTO_APPROVE", true) != true {
		t.Error("invalid bool should fall back")
	}
}

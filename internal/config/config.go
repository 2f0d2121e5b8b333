package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port string
	// DatabaseURL is optional; without it sessions live in memory only.
	DatabaseURL    string
	JWTSecret      string
	AllowedOrigins []string
	KafkaBrokers   []string
	KafkaTopic     string
	// AutoApprove starts new orders in PREPARING.
	AutoApprove  bool
	ServiceName  string
	OTLPEndpoint string
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		AllowedOrigins: getList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		KafkaBrokers:   getList("KAFKA_BROKERS", nil),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "order-events"),
		AutoApprove:    getBool("AUTO_APPROVE", false),
		ServiceName:    getEnv("SERVICE_NAME", "partnerdash-api"),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getList splits a comma-separated variable, dropping empty entries.
func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

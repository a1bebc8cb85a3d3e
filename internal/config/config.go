// Package config loads runtime configuration from environment variables,
// optionally seeded from a .env file. Backing services are optional: an
// unset MySQL, Redis, RabbitMQ or Mercado Pago section makes the engine
// fall back to its in-process substitute.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"auction-engine/utils"
)

type Config struct {
	Port string

	// MySQL; the in-memory store is used when DBHost is empty.
	DBUser string
	DBPass string
	DBHost string
	DBPort string
	DBName string

	// Redis price cache; disabled when RedisAddr is empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RabbitMQ event publishing; the in-memory recorder is used when empty.
	RabbitURL string

	// Mercado Pago access token; the mock gateway is used when empty.
	MercadoPagoToken string

	AuthorizingTimeout time.Duration
	SweepInterval      time.Duration
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		utils.Warn("failed to load .env file", map[string]any{"error": err.Error()})
	}

	return Config{
		Port:               getEnv("PORT", "8080"),
		DBUser:             os.Getenv("DB_USER"),
		DBPass:             os.Getenv("DB_PASS"),
		DBHost:             os.Getenv("DB_HOST"),
		DBPort:             getEnv("DB_PORT", "3306"),
		DBName:             getEnv("DB_NAME", "auction_engine"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		RabbitURL:          os.Getenv("RABBITMQ_URL"),
		MercadoPagoToken:   os.Getenv("MERCADOPAGO_ACCESS_TOKEN"),
		AuthorizingTimeout: time.Duration(getEnvInt("AUTHORIZING_TIMEOUT_MIN", 15)) * time.Minute,
		SweepInterval:      time.Duration(getEnvInt("SWEEP_INTERVAL_SEC", 30)) * time.Second,
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt is like getEnv but converts the value to an integer; invalid
// values fall back to the default.
func getEnvInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		utils.Warn("invalid integer env var, using default", map[string]any{"key": key, "value": s})
		return fallback
	}
	return n
}

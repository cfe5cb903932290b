// Package config loads service configuration from the environment and
// the routing policy from its YAML file.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds the service configuration.
type Config struct {
	ServiceName string
	Version     string
	Environment string
	LogLevel    string

	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	DatabaseURL string

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	DirectoryCacheTTL time.Duration

	NATSURL string

	RoutingPolicyPath string
}

// Load reads configuration from environment variables, applying defaults
// suitable for local development.
func Load() *Config {
	return &Config{
		ServiceName: getEnv("SERVICE_NAME", "be-lf-workrequests"),
		Version:     getEnv("VERSION", "dev"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		Port:            getEnvInt("PORT", 8084),
		ReadTimeout:     time.Duration(getEnvInt("READ_TIMEOUT_SECONDS", 15)) * time.Second,
		WriteTimeout:    time.Duration(getEnvInt("WRITE_TIMEOUT_SECONDS", 30)) * time.Second,
		IdleTimeout:     time.Duration(getEnvInt("IDLE_TIMEOUT_SECONDS", 60)) * time.Second,
		ShutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 15)) * time.Second,

		DatabaseURL: getEnv("DATABASE_URL", "postgres://lostfound@localhost:5432/lostfound?sslmode=disable"),

		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		DirectoryCacheTTL: time.Duration(getEnvInt("DIRECTORY_CACHE_TTL_SECONDS", 60)) * time.Second,

		NATSURL: getEnv("NATS_URL", "nats://localhost:4222"),

		RoutingPolicyPath: getEnv("ROUTING_POLICY_PATH", ""),
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

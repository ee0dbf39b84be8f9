// Package config reads settings from the environment. A .env file in the
// working directory is loaded first when present; variables already set
// in the environment win over it.
package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type DB struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	Path     string
}

type Config struct {
	StoreURL           string
	StoreTimeout       time.Duration
	BreakerMaxFailures int
	BreakerTimeout     time.Duration

	StorePort string
	GinMode   string
	DB        DB
}

// Load reads the configuration. files default to ".env"; a missing file
// is not an error.
func Load(files ...string) Config {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("Failed to load %s: %v", f, err)
		}
	}

	return Config{
		StoreURL:           getEnv("STORE_URL", "http://localhost:3001"),
		StoreTimeout:       getEnvDuration("STORE_TIMEOUT", 10*time.Second),
		BreakerMaxFailures: getEnvInt("BREAKER_MAX_FAILURES", 5),
		BreakerTimeout:     getEnvDuration("BREAKER_TIMEOUT", 30*time.Second),
		StorePort:          getEnv("STORE_PORT", "3001"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		DB: DB{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "program"),
			Password: getEnv("DB_PASSWORD", "test"),
			Name:     getEnv("DB_NAME", "library"),
			Path:     getEnv("DB_PATH", "library.db"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

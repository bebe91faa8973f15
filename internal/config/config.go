package config

import (
	"errors"
	"os"
	"strings"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds the server configuration, read from the environment.
type Config struct {
	Port           string
	Env            string
	JWTSecret      string
	StoreBackend   string
	DatabaseURL    string
	AllowedOrigins []string
}

// Load reads configuration from environment variables. JWT_SECRET is
// mandatory; everything else has a default.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         "8080",
		Env:          "development",
		StoreBackend: StoreMemory,
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	if env := os.Getenv("ENV"); env != "" {
		cfg.Env = env
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	if backend := os.Getenv("STORE"); backend != "" {
		cfg.StoreBackend = backend
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.StoreBackend == StorePostgres && cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required when STORE=postgres")
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	return cfg, nil
}

package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays cfg with values from the process environment, after
// seeding it from a .env file when one exists in the working directory.
// Unset variables keep the current values.
//
// Recognized variables:
//
//	ADDRESS                  bind address, e.g. ":8080"
//	DATABASE_DSN             PostgreSQL DSN
//	SECRET_KEY               JWT signing secret
//	ACCESS_TOKEN_VALIDITY    Go duration, e.g. "15m"
//	REFRESH_TOKEN_VALIDITY   Go duration, e.g. "720h"
func parseEnv(cfg *Config) {
	// Absence of .env is normal; the environment may be set directly.
	_ = godotenv.Load()

	if v := os.Getenv("ADDRESS"); v != "" {
		cfg.EndpointAddr = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		cfg.SecretKey = v
	}
	if v := os.Getenv("ACCESS_TOKEN_VALIDITY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AccessTokenValidityDuration = d
		}
	}
	if v := os.Getenv("REFRESH_TOKEN_VALIDITY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RefreshTokenValidityDuration = d
		}
	}
}

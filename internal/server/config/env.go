package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// parseEnv overlays TOTPKEEPER_* variables onto config. Unset variables keep
// the value from earlier layers. A .env file in the working directory is
// loaded first when present; it never overrides variables already set.
func parseEnv(config *Config) error {
	_ = godotenv.Load()

	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

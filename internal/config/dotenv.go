package config

import (
	"github.com/joho/godotenv"
)

// LoadDotEnv reads .env files into the environment.
// It does NOT override existing env vars (env takes precedence).
// A missing file is reported to the caller, which may ignore it.
func LoadDotEnv(paths ...string) error {
	return godotenv.Load(paths...)
}

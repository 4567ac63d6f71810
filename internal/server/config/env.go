package config

import (
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// dotenvFiles are loaded before the environment is read. Missing files are ignored.
var dotenvFiles = []string{".env"}

// parseEnv overlays Config with PHOTODIARY_* variables. Variables already set
// in the process environment win over the .env file. Unset variables leave
// the current values untouched. Malformed values panic, like bad JSON does.
func parseEnv(cfg *Config) {
	for _, f := range dotenvFiles {
		_ = godotenv.Load(f)
	}

	if err := env.Parse(cfg); err != nil {
		panic(err)
	}
}

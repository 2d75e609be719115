// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config carries every external setting the module reads.
type Config struct {
	DatabaseURL string
	LogLevel    string
	// XBRLRulesPath optionally points at a YAML file overriding the
	// built-in taxonomy rule tables.
	XBRLRulesPath string
}

// Load reads the environment, after merging a .env file when one exists.
// Missing .env is not an error; a shell-provided environment always wins.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env file")
	}

	cfg := Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		XBRLRulesPath: os.Getenv("XBRL_RULES_PATH"),
	}
	applyLogLevel(cfg.LogLevel)
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func applyLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		log.Warn().Str("level", level).Msg("unknown log level, keeping info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

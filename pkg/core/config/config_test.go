package config

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/bilancio_test")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("XBRL_RULES_PATH", "")

	cfg := Load()
	if cfg.DatabaseURL != "postgres://localhost/bilancio_test" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info default", cfg.LogLevel)
	}
}

func TestLoadAppliesLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	Load()
	if got := zerolog.GlobalLevel(); got != zerolog.WarnLevel {
		t.Errorf("global level = %s, want warn", got)
	}

	t.Setenv("LOG_LEVEL", "nonsense")
	Load()
	if got := zerolog.GlobalLevel(); got != zerolog.InfoLevel {
		t.Errorf("global level = %s, want info fallback for bad value", got)
	}
}

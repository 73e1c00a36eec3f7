package config

import (
	"strings"
	"testing"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Error("Load should fail without JWT_SECRET")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Path != "runner.db" {
		t.Errorf("db path = %s", cfg.Database.Path)
	}
	if cfg.HTTP.Address != ":8080" {
		t.Errorf("http address = %s", cfg.HTTP.Address)
	}
	if cfg.Runner.BaseFee != DefaultBaseFee {
		t.Errorf("base fee = %v, want %v", cfg.Runner.BaseFee, DefaultBaseFee)
	}
	if cfg.Runner.MaxActive != DefaultMaxActive {
		t.Errorf("max active = %d, want %d", cfg.Runner.MaxActive, DefaultMaxActive)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_PATH", "/tmp/dispatch.db")
	t.Setenv("HTTP_ADDRESS", ":9999")
	t.Setenv("RUNNER_BASE_FEE", "12.5")
	t.Setenv("RUNNER_MAX_ACTIVE", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Path != "/tmp/dispatch.db" || cfg.HTTP.Address != ":9999" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Runner.BaseFee != 12.5 || cfg.Runner.MaxActive != 5 {
		t.Errorf("runner cfg = %+v", cfg.Runner)
	}
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("RUNNER_BASE_FEE", "twenty")
	t.Setenv("RUNNER_MAX_ACTIVE", "many")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Runner.BaseFee != DefaultBaseFee || cfg.Runner.MaxActive != DefaultMaxActive {
		t.Errorf("runner cfg = %+v, want defaults", cfg.Runner)
	}
}

func TestStringMasksSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "super-sensitive")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s := cfg.String(); strings.Contains(s, "super-sensitive") {
		t.Errorf("String() leaks the secret: %s", s)
	}
}

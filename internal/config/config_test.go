package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/TobiSchelling/LogiDash/internal/apperr"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.Sheets.Orders.Range != "Orders!A3:AM" {
		t.Errorf("expected orders range 'Orders!A3:AM', got %q", cfg.Sheets.Orders.Range)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Environment != Production {
		t.Errorf("expected production, got %q", cfg.Environment)
	}
	if cfg.Cache.Endpoints["forecast"] != 30 {
		t.Errorf("expected forecast ttl 30, got %d", cfg.Cache.Endpoints["forecast"])
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		t.Error("expected cors origins")
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
sheets:
  orders:
    file: orders.xlsx
server:
  port: 9000
environment: Development
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Sheets.Orders.File != "orders.xlsx" {
		t.Errorf("expected orders file, got %q", cfg.Sheets.Orders.File)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Sheets.Orders.Range != "Orders!A3:AM" {
		t.Errorf("expected default range, got %q", cfg.Sheets.Orders.Range)
	}
	if cfg.SheetsTimeout() != 30*time.Second {
		t.Errorf("expected 30s timeout, got %s", cfg.SheetsTimeout())
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development environment")
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := parse([]byte("server: [unclosed"))
	if apperr.KindOf(err) != apperr.KindConfiguration {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	t.Setenv(EnvOrdersURL, "https://example.com/orders.csv")
	t.Setenv(EnvEnv, "development")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Sheets.Orders.URL != "https://example.com/orders.csv" {
		t.Errorf("expected env override for orders url, got %q", cfg.Sheets.Orders.URL)
	}
	if cfg.Environment != Development {
		t.Errorf("expected env override for environment, got %q", cfg.Environment)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(EnvParcelsURL+"=https://example.com/parcels.csv\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv(EnvParcelsURL, "")
	os.Unsetenv(EnvParcelsURL)

	LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env"))
	if got := os.Getenv(EnvParcelsURL); got != "https://example.com/parcels.csv" {
		t.Errorf("expected value from .env, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	cfg, _ := parse(DefaultConfigYAML)
	if apperr.KindOf(cfg.Validate()) != apperr.KindConfiguration {
		t.Error("default config has no orders source and should fail validation")
	}

	cfg.Sheets.Orders.URL = "https://example.com/orders.csv"
	cfg.Environment = "staging"
	if cfg.Validate() == nil {
		t.Error("unknown environment should fail validation")
	}
}

func TestCacheTTLs(t *testing.T) {
	cfg, _ := parse(DefaultConfigYAML)
	ttls := cfg.CacheTTLs()
	if ttls["issues"] != 2*time.Minute || ttls["default"] != 5*time.Minute {
		t.Errorf("unexpected ttls: %v", ttls)
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
	if cfg.DBPath() != filepath.Join("/custom/path", "logidash.db") {
		t.Errorf("unexpected db path %q", cfg.DBPath())
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 8084 {
		t.Errorf("expected default port 8084, got %d", cfg.Server.Port)
	}
	if cfg.Database.CSVFile != "Superstore_Sales_utf8.csv" {
		t.Errorf("unexpected default CSV file %q", cfg.Database.CSVFile)
	}
	if cfg.Database.LoadWorkers != 10 {
		t.Errorf("expected 10 load workers, got %d", cfg.Database.LoadWorkers)
	}
	if !cfg.Logger.AddSource {
		t.Error("expected source locations in logs by default")
	}
	if cfg.Address() != "localhost:8084" {
		t.Errorf("unexpected address %q", cfg.Address())
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_READ_TIMEOUT", "3s")
	t.Setenv("CSV_FILE", "orders.csv")
	t.Setenv("LOG_SOURCE", "false")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 3*time.Second {
		t.Errorf("expected read timeout 3s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Database.CSVFile != "orders.csv" {
		t.Errorf("expected orders.csv, got %q", cfg.Database.CSVFile)
	}
	if cfg.Logger.AddSource {
		t.Error("expected LOG_SOURCE=false to disable source locations")
	}
	if len(cfg.Security.AllowedOrigins) != 2 || cfg.Security.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("unexpected origins %v", cfg.Security.AllowedOrigins)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	// Registered so t.Setenv restores the variable after godotenv sets it.
	t.Setenv("UI_TITLE", "")
	os.Unsetenv("UI_TITLE")

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("UI_TITLE=Superstore\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.UI.Title != "Superstore" {
		t.Errorf("expected title from .env, got %q", cfg.UI.Title)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "SERVER_PORT", "70000"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad log format", "LOG_FORMAT", "xml"},
		{"zero workers", "LOAD_WORKERS", "0"},
		{"zero table rows", "UI_MAX_TABLE_ROWS", "0"},
		{"zero rps", "SECURITY_RATE_LIMIT_RPS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s should fail", tt.key, tt.value)
			}
		})
	}
}

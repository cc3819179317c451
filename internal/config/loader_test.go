package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTPPort != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("expected default session TTL 24h, got %s", cfg.SessionTTL)
	}
	if cfg.RequestCutoff != time.Hour {
		t.Fatalf("expected default cutoff 1h, got %s", cfg.RequestCutoff)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transport.yaml")
	content := strings.Join([]string{
		"http_port: 9090",
		"sqlite_dsn: file:custom.db",
		"session_ttl: 2h",
		"request_cutoff: 45m",
		"log_format: text",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTPPort != 9090 || cfg.SQLiteDSN != "file:custom.db" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.SessionTTL != 2*time.Hour || cfg.RequestCutoff != 45*time.Minute {
		t.Fatalf("durations not parsed: %+v", cfg)
	}
	if cfg.LogFormat != "text" || cfg.LogLevel != "info" {
		t.Fatalf("expected file format with default level, got %+v", cfg)
	}
}

func TestLoadMissingNamedFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for an explicitly named missing file")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transport.yaml")
	if err := os.WriteFile(path, []byte("http_port: 9090\n"), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	t.Setenv("TRANSPORT_HTTP_PORT", "7070")
	t.Setenv("TRANSPORT_REQUEST_CUTOFF", "90m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTPPort != 7070 {
		t.Fatalf("environment must override the file, got %d", cfg.HTTPPort)
	}
	if cfg.RequestCutoff != 90*time.Minute {
		t.Fatalf("cutoff override not applied: %s", cfg.RequestCutoff)
	}
}

func TestLoadInvalidEnv(t *testing.T) {
	t.Setenv("TRANSPORT_SESSION_TTL", "sometimes")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unparseable TTL")
	}
}

func TestLoadInvalidFileDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transport.yaml")
	if err := os.WriteFile(path, []byte("session_ttl: whenever\n"), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unparseable file duration")
	}
}

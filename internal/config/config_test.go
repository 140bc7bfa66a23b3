package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
redis:
  addr: localhost:6379
  ttl: 15m
content:
  id: photosynthesis
  file: content.yaml
lab:
  simulation_duration: 5s
  incorrect_flash: 500ms
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DATABASE_URL", "postgres://lab@localhost/lab")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Redis.Addr != "localhost:6379" || cfg.Content.File != "content.yaml" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Postgres.URL != "postgres://lab@localhost/lab" {
		t.Fatalf("expected env override for postgres url, got %q", cfg.Postgres.URL)
	}
	if got := TTLDuration(cfg.Lab.IncorrectFlash, time.Second); got != 500*time.Millisecond {
		t.Fatalf("expected 500ms flash, got %v", got)
	}
	if cfg.Log.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Log.Format)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected defaults for missing file, got %v", err)
	}
	if cfg.Server.Port != "" {
		t.Fatalf("expected empty port, got %q", cfg.Server.Port)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %v", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for garbage, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}

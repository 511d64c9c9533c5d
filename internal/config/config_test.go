package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.DBPath != "agora.db" {
		t.Errorf("expected default db path agora.db, got %s", cfg.DBPath)
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("expected default token ttl 1h, got %s", cfg.TokenTTL)
	}
	if cfg.SendBuffer != 256 {
		t.Errorf("expected default send buffer 256, got %d", cfg.SendBuffer)
	}
	if cfg.MaxAvatarBytes != 5<<20 {
		t.Errorf("expected default max avatar 5MiB, got %d", cfg.MaxAvatarBytes)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("expected addr :8080, got %s", cfg.Addr())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("SEND_BUFFER", "32")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("expected db path /tmp/test.db, got %s", cfg.DBPath)
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Errorf("expected token ttl 2h, got %s", cfg.TokenTTL)
	}
	if cfg.SendBuffer != 32 {
		t.Errorf("expected send buffer 32, got %d", cfg.SendBuffer)
	}
	if !cfg.LogPretty {
		t.Error("expected pretty logging")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agora.yaml")
	body := "port: \"7000\"\nupload_dir: /srv/uploads\ncors_origin: https://forum.example\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PORT", "7100")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "7100" {
		t.Errorf("expected env to win over file, got %s", cfg.Port)
	}
	if cfg.UploadDir != "/srv/uploads" {
		t.Errorf("expected upload dir from file, got %s", cfg.UploadDir)
	}
	if cfg.CORSOrigin != "https://forum.example" {
		t.Errorf("expected cors origin from file, got %s", cfg.CORSOrigin)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadInvalidInt(t *testing.T) {
	t.Setenv("SEND_BUFFER", "notanumber")

	if _, err := Load(""); err == nil {
		t.Error("expected error for invalid send buffer")
	}
}

func TestLoadRejectsNonPositiveBuffer(t *testing.T) {
	t.Setenv("SEND_BUFFER", "0")

	if _, err := Load(""); err == nil {
		t.Error("expected error for zero send buffer")
	}
}

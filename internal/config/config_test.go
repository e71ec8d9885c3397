package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults_FromEnv(t *testing.T) {
	t.Setenv("DB_USER", "sa")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_SERVER", "db.example.com")
	t.Setenv("DB_DATABASE", "bot")
	t.Setenv("DB_PORT", "1434")
	t.Setenv("DB_ENCRYPT", "true")
	t.Setenv("DB_TRUST_CERTIFICATE", "yes") // anything but "true" is false

	cfg := Defaults()
	if cfg.DB.User != "sa" || cfg.DB.Server != "db.example.com" {
		t.Errorf("unexpected DB config: %+v", cfg.DB)
	}
	if cfg.DB.Port != 1434 {
		t.Errorf("expected port 1434, got %d", cfg.DB.Port)
	}
	if !cfg.DB.Encrypt {
		t.Error("expected encrypt true")
	}
	if cfg.DB.TrustServerCert {
		t.Error("expected trustServerCertificate false for non-'true' value")
	}
}

func TestDefaults_InvalidPortFallsBack(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")

	cfg := Defaults()
	if cfg.DB.Port != 1433 {
		t.Errorf("expected default port 1433, got %d", cfg.DB.Port)
	}
}

func TestConnString(t *testing.T) {
	d := DBConfig{
		User: "sa", Password: "p@ss", Server: "host", Database: "bot",
		Port: 1433, Encrypt: true, TrustServerCert: true,
	}
	dsn := d.ConnString()
	for _, want := range []string{"sqlserver://", "host:1433", "database=bot", "encrypt=true", "trustservercertificate=true"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN %q missing %q", dsn, want)
		}
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Bot.GroupName != "SISTEMAS SUC" {
		t.Errorf("unexpected group name %q", cfg.Bot.GroupName)
	}
	if cfg.Bot.AutoReply {
		t.Error("auto-reply must default to off")
	}
}

func TestLoad_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.yaml")
	body := "bot:\n  autoReply: true\n  filesRoot: /srv/faq\n  backoffMin: 1s\n  backoffMax: 30s\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Bot.AutoReply {
		t.Error("expected auto-reply enabled")
	}
	if cfg.Bot.FilesRoot != "/srv/faq" {
		t.Errorf("unexpected files root %q", cfg.Bot.FilesRoot)
	}
	if cfg.Bot.BackoffMax != 30*time.Second {
		t.Errorf("unexpected backoff max %v", cfg.Bot.BackoffMax)
	}
	// Untouched keys keep defaults.
	if cfg.Bot.GroupName != "SISTEMAS SUC" {
		t.Errorf("unexpected group name %q", cfg.Bot.GroupName)
	}
}

func TestLoad_InvalidBackoffRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.yaml")
	if err := os.WriteFile(path, []byte("bot:\n  backoffMin: 10s\n  backoffMax: 1s\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected validation error")
	}
}

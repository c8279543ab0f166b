package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ADMIN_EMAIL", "admin@bartrekker.com")
	t.Setenv("ADMIN_PASSWORD", "sup3rsecret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}

	if cfg.HTTP.Port != 8080 {
		t.Errorf("HTTP.Port = %d, want 8080", cfg.HTTP.Port)
	}
	if cfg.Database.URL != "bartrekker.sqlite" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.Redis.Address != "localhost:6379" {
		t.Errorf("Redis.Address = %q", cfg.Redis.Address)
	}
	if cfg.Admin.ID != "bartrekker-admin" || cfg.Admin.Name != "BarTrekker Admin" {
		t.Errorf("Admin defaults = %+v", cfg.Admin)
	}
	if cfg.Session.StorageKey != "bartrekker:admin:session" {
		t.Errorf("Session.StorageKey = %q", cfg.Session.StorageKey)
	}
	if cfg.Session.IdleTimeout != 12*time.Hour {
		t.Errorf("Session.IdleTimeout = %v, want 12h", cfg.Session.IdleTimeout)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging defaults = %+v", cfg.Logging)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SESSION_IDLE_TIMEOUT", "30m")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ADMIN_NAME", "Night Shift")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}

	if cfg.HTTP.Port != 9090 {
		t.Errorf("HTTP.Port = %d, want 9090", cfg.HTTP.Port)
	}
	if cfg.Session.IdleTimeout != 30*time.Minute {
		t.Errorf("Session.IdleTimeout = %v, want 30m", cfg.Session.IdleTimeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	if cfg.Admin.Name != "Night Shift" {
		t.Errorf("Admin.Name = %q", cfg.Admin.Name)
	}
}

func TestLoadRequiresAdminCredentials(t *testing.T) {
	// Only the email is set; the password is required too
	t.Setenv("ADMIN_EMAIL", "admin@bartrekker.com")
	t.Setenv("ADMIN_PASSWORD", "")

	if _, err := Load(); err == nil {
		t.Error("expected an error when the admin credential pair is incomplete")
	}
}

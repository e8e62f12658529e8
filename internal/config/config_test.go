package config

import (
	"os"
	"path/filepath"
	"testing"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadWith("", env(nil))
	if err != nil {
		t.Fatalf("loadWith failed: %v", err)
	}
	if cfg.Server.Port != 4600 {
		t.Errorf("port = %d, want 4600", cfg.Server.Port)
	}
	if cfg.Model.Name != "gpt-4o-mini" {
		t.Errorf("model = %q", cfg.Model.Name)
	}
	if cfg.Model.APIKey != "" {
		t.Errorf("api key defaulted to %q, want empty (demo mode)", cfg.Model.APIKey)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.RateLimit.RequestsPerMinute != 0 {
		t.Errorf("rate limit enabled by default: %d", cfg.RateLimit.RequestsPerMinute)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9999
model:
  name: test-model
log:
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := loadWith(path, env(nil))
	if err != nil {
		t.Fatalf("loadWith failed: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Model.Name != "test-model" {
		t.Errorf("model = %q", cfg.Model.Name)
	}
	// Values the file does not mention keep their defaults.
	if cfg.Log.Level != "info" {
		t.Errorf("level = %q, want default info", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("format = %q, want json", cfg.Log.Format)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := loadWith(path, env(map[string]string{
		"FACET_SERVER_PORT":   "4700",
		"FACET_MODEL_API_KEY": "sk-test",
	}))
	if err != nil {
		t.Fatalf("loadWith failed: %v", err)
	}
	if cfg.Server.Port != 4700 {
		t.Errorf("port = %d, want env override 4700", cfg.Server.Port)
	}
	if cfg.Model.APIKey != "sk-test" {
		t.Errorf("api key = %q", cfg.Model.APIKey)
	}
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	if _, err := loadWith(filepath.Join(t.TempDir(), "nope.yaml"), env(nil)); err != nil {
		t.Fatalf("missing config file should not fail: %v", err)
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	if _, err := loadWith("", env(map[string]string{"FACET_SERVER_PORT": "lots"})); err == nil {
		t.Fatal("expected error for non-integer port")
	}
}

func TestEnsureToken(t *testing.T) {
	cfg := defaults()
	cfg.Storage.DataDir = t.TempDir()

	tok1, err := EnsureToken(cfg)
	if err != nil {
		t.Fatalf("EnsureToken failed: %v", err)
	}
	if len(tok1) != 64 {
		t.Errorf("generated token length = %d, want 64 hex chars", len(tok1))
	}

	// Second call reads the persisted token back.
	tok2, err := EnsureToken(cfg)
	if err != nil {
		t.Fatalf("second EnsureToken failed: %v", err)
	}
	if tok1 != tok2 {
		t.Error("token not stable across calls")
	}

	// Configured token wins.
	cfg.Auth.Token = "configured"
	tok3, err := EnsureToken(cfg)
	if err != nil {
		t.Fatalf("EnsureToken with configured token failed: %v", err)
	}
	if tok3 != "configured" {
		t.Errorf("token = %q, want configured value", tok3)
	}
}

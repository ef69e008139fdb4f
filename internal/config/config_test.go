package config

import (
	"testing"
)

// mapBackend is an in-memory test double for ConfigBackend.
type mapBackend struct {
	data map[string]any
}

func (b *mapBackend) GetString(key string) (string, bool, error) {
	v, ok := b.data[key]
	if !ok {
		return "", false, nil
	}
	s, _ := v.(string)
	return s, true, nil
}

func (b *mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.data[key]
	if !ok {
		return 0, false, nil
	}
	i, _ := v.(int)
	return i, true, nil
}

func (b *mapBackend) SetString(key, val string) error { b.data[key] = val; return nil }
func (b *mapBackend) SetInt(key string, val int) error {
	b.data[key] = val
	return nil
}
func (b *mapBackend) Delete(key string) error { delete(b.data, key); return nil }

func TestDefaults(t *testing.T) {
	t.Setenv("BIDBUDDY_SERVER_PORT", "")
	t.Setenv("BIDBUDDY_LOG_LEVEL", "")
	t.Setenv("BIDBUDDY_API_TOKEN", "")

	cfg, err := loadWith(&mapBackend{data: map[string]any{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Ingest.PollInterval != "500ms" {
		t.Errorf("Ingest.PollInterval = %q, want %q", cfg.Ingest.PollInterval, "500ms")
	}
	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir should have a default")
	}
	if cfg.API.Token != "" {
		t.Errorf("API.Token = %q, want empty", cfg.API.Token)
	}
}

func TestBackendValues(t *testing.T) {
	t.Setenv("BIDBUDDY_SERVER_PORT", "")
	t.Setenv("BIDBUDDY_STORAGE_DATA_DIR", "")

	b := &mapBackend{data: map[string]any{
		"server.port":      5000,
		"storage.data_dir": "/tmp/bidbuddy-test",
		"log.level":        "debug",
	}}
	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Storage.DataDir != "/tmp/bidbuddy-test" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

// Environment variables override backend values.
func TestEnvOverride(t *testing.T) {
	t.Setenv("BIDBUDDY_SERVER_PORT", "8080")

	b := &mapBackend{data: map[string]any{"server.port": 5000}}
	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
}

// The API token is env-only; the backend never supplies it.
func TestTokenEnvOnly(t *testing.T) {
	t.Setenv("BIDBUDDY_API_TOKEN", "secret-token")

	b := &mapBackend{data: map[string]any{"api.token": "file-token"}}
	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.Token != "secret-token" {
		t.Errorf("API.Token = %q, want %q", cfg.API.Token, "secret-token")
	}
}

func TestSetKeyRejectsSecret(t *testing.T) {
	if err := SetKey("api.token", "value"); err == nil {
		t.Fatal("expected error when setting a secret key")
	}
}

func TestValidKeysExcludesSecrets(t *testing.T) {
	for _, k := range ValidKeys() {
		if k == "api.token" {
			t.Errorf("secret key %q listed as settable", k)
		}
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 8080
google:
  full_folder_id: full
  short_folder_id: short
clips:
  backward_offset: 13
  clip_duration: 12
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Clips.BackwardOffset != 13 || cfg.Clips.ClipDuration != 12 {
		t.Errorf("clips = %+v", cfg.Clips)
	}
	// untouched sections keep their defaults
	if cfg.Clips.Extension != ".webm" || cfg.Batch.Workers != 2 || cfg.Google.AuthMode != "service_account" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 3000 || cfg.Clips.BackwardOffset != 8 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("server: [unclosed"), 0644)

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("error = %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envFrom(map[string]string{
		"PORT":                   "4000",
		"MH_PORT":                "5000",
		"MH_SHORT_FOLDER_ID":     "short-env",
		"MH_BACKWARD_OFFSET":     "13",
		"MH_CORS_ORIGINS":        "https://a.example, https://b.example",
		"MH_WORKERS":             "4",
		"MH_LOG_LEVEL":           "",
		"MH_GOOGLE_OAUTH_PORT":   "9090",
		"MH_GOOGLE_OAUTH_SCOPES": "https://www.googleapis.com/auth/drive",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("MH_PORT should win over PORT, got %d", cfg.Server.Port)
	}
	if cfg.Google.ShortFolderID != "short-env" || cfg.Clips.BackwardOffset != 13 || cfg.Batch.Workers != 4 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("cors = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("empty variable should not override, got %q", cfg.Log.Level)
	}
	if cfg.Google.OAuthCallbackPort != 9090 || len(cfg.Google.OAuthScopes) != 1 || cfg.Google.OAuthScopes[0] != "https://www.googleapis.com/auth/drive" {
		t.Errorf("oauth overrides not applied: %+v", cfg.Google)
	}
}

func TestApplyEnvInvalidNumbers(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envFrom(map[string]string{"MH_WORKERS": "many", "MH_CLIP_DURATION": "long"}))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "MH_WORKERS") || !strings.Contains(err.Error(), "MH_CLIP_DURATION") {
		t.Errorf("error should name both variables: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.Google.FullFolderID = "full"
		c.Google.ShortFolderID = "short"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing short folder", func(c *Config) { c.Google.ShortFolderID = "" }, "short_folder_id"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad auth mode", func(c *Config) { c.Google.AuthMode = "api_key" }, "auth_mode"},
		{"zero offset", func(c *Config) { c.Clips.BackwardOffset = 0 }, "backward_offset"},
		{"extension without dot", func(c *Config) { c.Clips.Extension = "webm" }, "extension"},
		{"no workers", func(c *Config) { c.Batch.Workers = 0 }, "batch.workers"},
		{"oauth port out of range", func(c *Config) { c.Google.AuthMode = "oauth"; c.Google.OAuthCallbackPort = -1 }, "oauth_callback_port"},
		{"oauth without scopes", func(c *Config) { c.Google.AuthMode = "oauth"; c.Google.OAuthScopes = nil }, "oauth_scopes"},
		{"oauth on a random port", func(c *Config) { c.Google.AuthMode = "oauth"; c.Google.OAuthCallbackPort = 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Google.FullFolderID = "full"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Google.FullFolderID != "full" {
		t.Errorf("full folder = %q", loaded.Google.FullFolderID)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	os.WriteFile(path, []byte("MH_TEST_DOTENV_VALUE=from-file\n"), 0644)
	t.Setenv("MH_TEST_DOTENV_VALUE", "")
	os.Unsetenv("MH_TEST_DOTENV_VALUE")

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("MH_TEST_DOTENV_VALUE"); got != "from-file" {
		t.Errorf("value = %q", got)
	}
}

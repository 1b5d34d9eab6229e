package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelingest/internal/config"
)

func setRequiredKeys(t *testing.T) {
	t.Setenv("APIFY_API_TOKEN", "env-apify")
	t.Setenv("BUNNY_STREAM_API_KEY", "env-bunny")
	t.Setenv("BUNNY_STREAM_LIBRARY_ID", "321")
	t.Setenv("BUNNY_CDN_HOSTNAME", "vz-env.b-cdn.net")
	t.Setenv("GEMINI_API_KEY", "env-gemini")
}

func TestLoadDefaultsUseEnvKeysAndExpandPaths(t *testing.T) {
	setRequiredKeys(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "reelingest", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7512" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Scraper.APIToken != "env-apify" {
		t.Fatalf("expected scraper token from env, got %q", cfg.Scraper.APIToken)
	}
	if cfg.Stream.APIKey != "env-bunny" {
		t.Fatalf("expected stream key from env, got %q", cfg.Stream.APIKey)
	}
	if cfg.Gemini.Model != config.Default().Gemini.Model {
		t.Fatalf("unexpected gemini model: %q", cfg.Gemini.Model)
	}
	if cfg.Stream.UploadMaxAttempts != 3 {
		t.Fatalf("upload max attempts = %d, want 3", cfg.Stream.UploadMaxAttempts)
	}
	if cfg.Dedupe.Enabled {
		t.Fatal("expected dedupe disabled by default")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	setRequiredKeys(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
staging_dir = "` + filepath.Join(dir, "staging") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
api_bind = "127.0.0.1:9000"

[scraper]
api_token = "file-token"

[workflow]
workers = 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Scraper.APIToken != "file-token" {
		t.Fatalf("expected file token to win over env, got %q", cfg.Scraper.APIToken)
	}
	if cfg.Paths.APIBind != "127.0.0.1:9000" {
		t.Fatalf("api bind = %q", cfg.Paths.APIBind)
	}
	if cfg.Workflow.Workers != 4 {
		t.Fatalf("workers = %d, want 4", cfg.Workflow.Workers)
	}
	if cfg.Stream.BaseURL != config.Default().Stream.BaseURL {
		t.Fatalf("expected stream base url default, got %q", cfg.Stream.BaseURL)
	}
}

func TestLoadRejectsMissingScraperToken(t *testing.T) {
	t.Setenv("APIFY_API_TOKEN", "")
	t.Setenv("BUNNY_STREAM_API_KEY", "env-bunny")
	t.Setenv("BUNNY_STREAM_LIBRARY_ID", "321")
	t.Setenv("BUNNY_CDN_HOSTNAME", "vz-env.b-cdn.net")
	t.Setenv("GEMINI_API_KEY", "env-gemini")
	t.Setenv("HOME", t.TempDir())

	_, _, _, err := config.Load("")
	if err == nil {
		t.Fatal("expected missing scraper token to fail validation")
	}
	if !strings.Contains(err.Error(), "scraper.api_token") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsBadHeartbeatBounds(t *testing.T) {
	setRequiredKeys(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[workflow]
heartbeat_interval = 60
heartbeat_timeout = 30
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "heartbeat_timeout") {
		t.Fatalf("expected heartbeat bound error, got %v", err)
	}
}

func TestWriteSampleRoundTrips(t *testing.T) {
	setRequiredKeys(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
}

// Scraper contains configuration for the actor-based scraping backend.
type Scraper struct {
	APIToken       string `toml:"api_token"`
	BaseURL        string `toml:"base_url"`
	TikTokActor    string `toml:"tiktok_actor"`
	InstagramActor string `toml:"instagram_actor"`
	YouTubeActor   string `toml:"youtube_actor"`
	PollInterval   int    `toml:"poll_interval"`
	ResolveTimeout int    `toml:"resolve_timeout"`
}

// Stream contains configuration for the CDN video store.
type Stream struct {
	APIKey              string `toml:"api_key"`
	BaseURL             string `toml:"base_url"`
	LibraryID           string `toml:"library_id"`
	CDNHostname         string `toml:"cdn_hostname"`
	UploadMaxAttempts   int    `toml:"upload_max_attempts"`
	UploadBaseTimeout   int    `toml:"upload_base_timeout"`
	UploadTimeoutStep   int    `toml:"upload_timeout_step"`
	ThumbnailAttempts   int    `toml:"thumbnail_attempts"`
	MaxThumbnailSizeMiB int    `toml:"max_thumbnail_size_mib"`
}

// Gemini contains configuration for the AI transcription backend.
type Gemini struct {
	APIKey       string `toml:"api_key"`
	BaseURL      string `toml:"base_url"`
	Model        string `toml:"model"`
	PollInterval int    `toml:"poll_interval"`
	PollTimeout  int    `toml:"poll_timeout"`
}

// Dedupe contains configuration for the recently-submitted URL guard.
type Dedupe struct {
	Enabled    bool   `toml:"enabled"`
	RedisAddr  string `toml:"redis_addr"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completed      bool   `toml:"completed"`
	Errors         bool   `toml:"errors"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
	Workers            int `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the ingestion daemon.
//
// Sections by subsystem:
//   - Paths: staging/log directories and API bind address
//   - Scraper: source resolution via the actor scraping API
//   - Stream: CDN video store credentials and retry policy
//   - Gemini: transcription backend credentials and poll bounds
//   - Dedupe: optional redis guard against duplicate in-flight URLs
//   - Notifications: ntfy push notification settings
//   - Workflow: daemon polling intervals and heartbeats
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Scraper       Scraper       `toml:"scraper"`
	Stream        Stream        `toml:"stream"`
	Gemini        Gemini        `toml:"gemini"`
	Dedupe        Dedupe        `toml:"dedupe"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelingest/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has defaults applied, paths expanded, and environment overrides resolved.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// WriteSample writes the annotated sample configuration to path.
func WriteSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the staging and log directories when missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	candidate := strings.TrimSpace(path)
	if candidate == "" {
		if env := strings.TrimSpace(os.Getenv("REELINGEST_CONFIG")); env != "" {
			candidate = env
		} else {
			def, err := DefaultConfigPath()
			if err != nil {
				return "", false, err
			}
			candidate = def
		}
	}

	expanded, err := expandPath(candidate)
	if err != nil {
		return "", false, err
	}

	if _, statErr := os.Stat(expanded); statErr != nil {
		if isNotExist(statErr) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", statErr)
	}
	return expanded, true, nil
}

func isNotExist(err error) bool {
	if os.IsNotExist(err) {
		return true
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return os.IsNotExist(pathErr)
	}
	return false
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	return abs, nil
}

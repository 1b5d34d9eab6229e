package testsupport

import (
	"path/filepath"
	"testing"

	"reelingest/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Scraper.APIToken = "test"
	cfgVal.Stream.APIKey = "test"
	cfgVal.Stream.LibraryID = "123"
	cfgVal.Stream.CDNHostname = "vz-test.b-cdn.net"
	cfgVal.Gemini.APIKey = "test"
	cfgVal.Dedupe.Enabled = false
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWorkers overrides the pipeline worker count on the test config.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.Workers = n
	}
}

// WithDedupe enables the duplicate guard pointed at the given redis address.
func WithDedupe(addr string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dedupe.Enabled = true
		b.cfg.Dedupe.RedisAddr = addr
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}

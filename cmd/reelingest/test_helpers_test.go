package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelingest/internal/config"
	"reelingest/internal/daemon"
	"reelingest/internal/dedupe"
	"reelingest/internal/logging"
	"reelingest/internal/notifications"
	"reelingest/internal/pipeline"
	"reelingest/internal/records"
	"reelingest/internal/stage"
	"reelingest/internal/testsupport"
)

type noopStage struct{ name string }

func (noopStage) Prepare(context.Context, *records.Record) error { return nil }
func (noopStage) Execute(context.Context, *records.Record) error { return nil }
func (s noopStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(s.name)
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *records.Store
	daemon     *daemon.Daemon
	serverAddr string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 0

	configPath := filepath.Join(homeDir, ".config", "reelingest", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)

	logger := logging.NewNop()
	mgr := pipeline.NewManagerWithDependencies(cfg, store, logger, notifications.NewService(cfg), dedupe.NewGuard(cfg))
	mgr.ConfigureStages(pipeline.StageSet{
		Downloader:  noopStage{name: "downloader"},
		Publisher:   noopStage{name: "publisher"},
		Transcriber: noopStage{name: "transcriber"},
	})

	d, err := daemon.New(cfg, store, logger, mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(d.Stop)

	return &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		serverAddr: d.Addr(),
		configPath: configPath,
	}
}

// setupStoreEnv prepares config and store without a running daemon, for
// commands that operate on the record store directly.
func setupStoreEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)

	configPath := filepath.Join(homeDir, ".config", "reelingest", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		store:      testsupport.MustOpenStore(t, cfg),
		configPath: configPath,
	}
}

func runCLI(t *testing.T, args []string, server, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if server != "" {
		flags = append(flags, "--server", server)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
staging_dir = %q
log_dir = %q
api_bind = %q

[scraper]
api_token = %q

[stream]
api_key = %q
library_id = %q
cdn_hostname = %q

[gemini]
api_key = %q
`,
		cfg.Paths.StagingDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
		cfg.Scraper.APIToken,
		cfg.Stream.APIKey,
		cfg.Stream.LibraryID,
		cfg.Stream.CDNHostname,
		cfg.Gemini.APIKey,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

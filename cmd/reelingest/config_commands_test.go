package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("sample configuration is empty")
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err == nil {
		t.Fatal("expected init without --overwrite to refuse existing file")
	}
}

func TestConfigValidate(t *testing.T) {
	env := setupStoreEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate", env.configPath}, "", "")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "is valid")
}

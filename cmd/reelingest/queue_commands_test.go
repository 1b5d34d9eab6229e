package main

import (
	"context"
	"strings"
	"testing"

	"reelingest/internal/platform"
	"reelingest/internal/records"
	"reelingest/internal/testsupport"
)

func TestQueueList(t *testing.T) {
	env := setupStoreEnv(t)
	ctx := context.Background()

	alpha := testsupport.NewRecord(t, env.store, "https://www.tiktok.com/@alpha/video/1", platform.TikTok)
	alpha.Title = "Alpha Clip"
	alpha.Status = records.StatusFailed
	if err := env.store.Update(ctx, alpha); err != nil {
		t.Fatalf("update alpha: %v", err)
	}

	beta := testsupport.NewRecord(t, env.store, "https://www.instagram.com/reel/beta/", platform.Instagram)
	beta.Title = "Beta Reel"
	beta.Status = records.StatusCompleted
	if err := env.store.Update(ctx, beta); err != nil {
		t.Fatalf("update beta: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "list"}, "", env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Alpha Clip")
	requireContains(t, out, "Beta Reel")

	out, _, err = runCLI(t, []string{"queue", "list", "--status", "failed"}, "", env.configPath)
	if err != nil {
		t.Fatalf("queue list --status failed: %v", err)
	}
	requireContains(t, out, "Alpha Clip")
	if strings.Contains(out, "Beta Reel") {
		t.Fatalf("expected filtered listing to omit completed record, got %q", out)
	}
}

func TestQueueRetryAndClear(t *testing.T) {
	env := setupStoreEnv(t)
	ctx := context.Background()

	failed := testsupport.NewRecord(t, env.store, "https://www.tiktok.com/@x/video/9", platform.TikTok)
	failed.SetFailed("download failed")
	if err := env.store.Update(ctx, failed); err != nil {
		t.Fatalf("update failed record: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "retry"}, "", env.configPath)
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "Requeued 1 record(s)")

	rec, err := env.store.GetByID(ctx, failed.ID)
	if err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if rec.Status != records.StatusPending {
		t.Fatalf("status after retry = %s, want %s", rec.Status, records.StatusPending)
	}

	rec.Status = records.StatusCompleted
	if err := env.store.Update(ctx, rec); err != nil {
		t.Fatalf("complete record: %v", err)
	}

	out, _, err = runCLI(t, []string{"queue", "clear"}, "", env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Removed 1 record(s)")
}

func TestQueueStatus(t *testing.T) {
	env := setupStoreEnv(t)

	out, _, err := runCLI(t, []string{"queue", "status"}, "", env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "Queue is empty")

	testsupport.NewRecord(t, env.store, "https://www.tiktok.com/@x/video/1", platform.TikTok)

	out, _, err = runCLI(t, []string{"queue", "status"}, "", env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "pending")
	requireContains(t, out, "total")
}

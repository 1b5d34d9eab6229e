package daemon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"reelingest/internal/config"
	"reelingest/internal/daemon"
	"reelingest/internal/dedupe"
	"reelingest/internal/logging"
	"reelingest/internal/notifications"
	"reelingest/internal/pipeline"
	"reelingest/internal/platform"
	"reelingest/internal/records"
	"reelingest/internal/stage"
	"reelingest/internal/testsupport"
)

type stubHandler struct {
	name    string
	execute func(context.Context, *records.Record) error
}

func (s *stubHandler) Prepare(ctx context.Context, rec *records.Record) error { return nil }

func (s *stubHandler) Execute(ctx context.Context, rec *records.Record) error {
	if s.execute != nil {
		return s.execute(ctx, rec)
	}
	return nil
}

func (s *stubHandler) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy(s.name)
}

func startDaemon(t *testing.T, cfg *config.Config, store *records.Store, set pipeline.StageSet) *daemon.Daemon {
	t.Helper()

	logger := logging.NewNop()
	mgr := pipeline.NewManagerWithDependencies(cfg, store, logger, notifications.NewService(cfg), dedupe.NewGuard(cfg))
	mgr.ConfigureStages(set)

	d, err := daemon.New(cfg, store, logger, mgr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)
	return d
}

func passthroughStages() pipeline.StageSet {
	return pipeline.StageSet{
		Downloader:  &stubHandler{name: "downloader"},
		Publisher:   &stubHandler{name: "publisher"},
		Transcriber: &stubHandler{name: "transcriber"},
	}
}

func postIngest(t *testing.T, addr, url string) *http.Response {
	t.Helper()

	body, err := json.Marshal(map[string]string{"sourceUrl": url})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(fmt.Sprintf("http://%s/api/ingest", addr), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/ingest: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestIngestRunsJobToCompletion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 0
	store := testsupport.MustOpenStore(t, cfg)
	d := startDaemon(t, cfg, store, passthroughStages())

	resp := postIngest(t, d.Addr(), "https://www.tiktok.com/@creator/video/7234567890123456789")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}
	var accepted struct {
		JobID  string `json:"jobId"`
		Status string `json:"status"`
	}
	decodeBody(t, resp, &accepted)
	if accepted.JobID == "" {
		t.Fatal("expected a job id")
	}
	if accepted.Status != "processing" {
		t.Fatalf("status = %q, want %q", accepted.Status, "processing")
	}

	deadline := time.Now().Add(30 * time.Second)
	for {
		jobResp, err := http.Get(fmt.Sprintf("http://%s/api/jobs/%s", d.Addr(), accepted.JobID))
		if err != nil {
			t.Fatalf("GET /api/jobs: %v", err)
		}
		var job struct {
			Status   string `json:"status"`
			Platform string `json:"platform"`
		}
		decodeBody(t, jobResp, &job)
		if job.Status == string(records.StatusCompleted) {
			if job.Platform != "tiktok" {
				t.Fatalf("platform = %q, want %q", job.Platform, "tiktok")
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never completed, last status %q", job.Status)
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func TestIngestRejectsUnsupportedURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d := startDaemon(t, cfg, store, passthroughStages())

	resp := postIngest(t, d.Addr(), "https://example.com/not-a-video")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestIngestRejectsDuplicateInFlight(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 0
	store := testsupport.MustOpenStore(t, cfg)

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	set := passthroughStages()
	set.Downloader = &stubHandler{name: "downloader", execute: func(ctx context.Context, rec *records.Record) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return ctx.Err()
	}}
	d := startDaemon(t, cfg, store, set)

	url := "https://www.instagram.com/reel/Cabc123def/"
	first := postIngest(t, d.Addr(), url)
	first.Body.Close()
	if first.StatusCode != http.StatusAccepted {
		t.Fatalf("first submission status = %d, want %d", first.StatusCode, http.StatusAccepted)
	}

	second := postIngest(t, d.Addr(), url)
	defer second.Body.Close()
	if second.StatusCode != http.StatusConflict {
		t.Fatalf("second submission status = %d, want %d", second.StatusCode, http.StatusConflict)
	}
}

func TestGetJobNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d := startDaemon(t, cfg, store, passthroughStages())

	resp, err := http.Get(fmt.Sprintf("http://%s/api/jobs/%s", d.Addr(), "missing-job"))
	if err != nil {
		t.Fatalf("GET /api/jobs: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestListRecordsReturnsPublishedOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	published := testsupport.NewRecord(t, store, "https://www.tiktok.com/@a/video/1", platform.TikTok)
	published.Status = records.StatusCompleted
	published.PlaybackURL = "https://iframe.mediadelivery.net/embed/123/guid-1"
	if err := store.Update(ctx, published); err != nil {
		t.Fatalf("Update: %v", err)
	}
	testsupport.NewRecord(t, store, "https://www.tiktok.com/@a/video/2", platform.TikTok)

	d := startDaemon(t, cfg, store, passthroughStages())

	resp, err := http.Get(fmt.Sprintf("http://%s/api/records", d.Addr()))
	if err != nil {
		t.Fatalf("GET /api/records: %v", err)
	}
	var views []struct {
		JobID       string `json:"jobId"`
		PlaybackURL string `json:"playbackUrl"`
	}
	decodeBody(t, resp, &views)
	if len(views) != 1 {
		t.Fatalf("records = %d, want 1", len(views))
	}
	if views[0].JobID != published.JobID {
		t.Fatalf("job id = %q, want %q", views[0].JobID, published.JobID)
	}
	if views[0].PlaybackURL == "" {
		t.Fatal("expected playback url on published record")
	}
}

func TestStatusReportsStagesAndQueue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.NewRecord(t, store, "https://www.tiktok.com/@a/video/3", platform.TikTok)

	d := startDaemon(t, cfg, store, passthroughStages())

	resp, err := http.Get(fmt.Sprintf("http://%s/api/status", d.Addr()))
	if err != nil {
		t.Fatalf("GET /api/status: %v", err)
	}
	var status struct {
		Running bool `json:"running"`
		Stages  []struct {
			Name  string `json:"name"`
			Ready bool   `json:"ready"`
		} `json:"stages"`
		Queue struct {
			Total int `json:"total"`
		} `json:"queue"`
	}
	decodeBody(t, resp, &status)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if len(status.Stages) != 3 {
		t.Fatalf("stages = %d, want 3", len(status.Stages))
	}
	for _, s := range status.Stages {
		if !s.Ready {
			t.Fatalf("stage %q not ready", s.Name)
		}
	}
	if status.Queue.Total < 1 {
		t.Fatalf("queue total = %d, want at least 1", status.Queue.Total)
	}
}

func TestSecondInstanceRefused(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d := startDaemon(t, cfg, store, passthroughStages())
	_ = d

	logger := logging.NewNop()
	mgr := pipeline.NewManagerWithDependencies(cfg, store, logger, notifications.NewService(cfg), dedupe.NewGuard(cfg))
	mgr.ConfigureStages(passthroughStages())
	other, err := daemon.New(cfg, store, logger, mgr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := other.Start(context.Background()); err == nil {
		other.Stop()
		t.Fatal("expected second instance to be refused")
	}
}

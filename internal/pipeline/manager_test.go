package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"reelingest/internal/config"
	"reelingest/internal/dedupe"
	"reelingest/internal/logging"
	"reelingest/internal/pipeline"
	"reelingest/internal/records"
	"reelingest/internal/services"
	"reelingest/internal/stage"
	"reelingest/internal/testsupport"
)

type stubStage struct {
	name        string
	executeHook func(*records.Record)
	prepareErr  error
	executeErr  error
	health      stage.Health
}

func newStubStage(name string) *stubStage {
	return &stubStage{name: name, health: stage.Healthy(name)}
}

func (s *stubStage) Prepare(_ context.Context, rec *records.Record) error {
	return s.prepareErr
}

func (s *stubStage) Execute(_ context.Context, rec *records.Record) error {
	if s.executeHook != nil {
		s.executeHook(rec)
	}
	return s.executeErr
}

func (s *stubStage) HealthCheck(context.Context) stage.Health {
	return s.health
}

type recordingNotifier struct {
	mu        sync.Mutex
	published []string
	completed []bool
	errors    []string
}

func (n *recordingNotifier) NotifyVideoPublished(_ context.Context, title, playbackURL string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, playbackURL)
	return nil
}

func (n *recordingNotifier) NotifyIngestCompleted(_ context.Context, title string, enriched bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, enriched)
	return nil
}

func (n *recordingNotifier) NotifyError(_ context.Context, err error, label string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, label)
	return nil
}

func (n *recordingNotifier) TestNotification(context.Context) error { return nil }

func (n *recordingNotifier) snapshot() (int, int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.published), len(n.completed), len(n.errors)
}

func pipelineConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 0
	cfg.Workflow.ErrorRetryInterval = 0
	cfg.Workflow.Workers = 2
	return cfg
}

func newRunningManager(t *testing.T, cfg *config.Config, store *records.Store, set pipeline.StageSet, notifier *recordingNotifier) *pipeline.Manager {
	t.Helper()
	mgr := pipeline.NewManagerWithDependencies(cfg, store, logging.NewNop(), notifier, dedupe.NewGuard(cfg))
	mgr.ConfigureStages(set)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)
	return mgr
}

func waitForStatus(t *testing.T, store *records.Store, id int64, want records.Status) *records.Record {
	t.Helper()
	deadline := time.After(30 * time.Second)
	for {
		select {
		case <-deadline:
			rec, _ := store.GetByID(context.Background(), id)
			t.Fatalf("timed out waiting for status %s, record: %+v", want, rec)
		default:
		}
		rec, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if rec.Status == want {
			return rec
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func TestManagerProcessesRecordThroughAllStages(t *testing.T) {
	cfg := pipelineConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	notifier := &recordingNotifier{}

	downloader := newStubStage("downloader")
	downloader.executeHook = func(rec *records.Record) {
		rec.Title = "A Video"
		rec.MediaFile = "/tmp/does-not-exist.mp4"
	}
	publisher := newStubStage("publisher")
	publisher.executeHook = func(rec *records.Record) {
		rec.RemoteID = "guid-1"
		rec.PlaybackURL = "https://iframe.mediadelivery.net/embed/42/guid-1"
		rec.DirectURL = "https://vz-x.b-cdn.net/guid-1/play_720p.mp4"
		rec.ThumbnailURL = "https://vz-x.b-cdn.net/guid-1/thumbnail.jpg"
	}
	transcriber := newStubStage("transcriber")
	transcriber.executeHook = func(rec *records.Record) {
		rec.Transcript = "hello"
		rec.TranscriptionStatus = records.TranscriptionCompleted
		rec.MediaFile = ""
	}

	mgr := newRunningManager(t, cfg, store, pipeline.StageSet{
		Downloader:  downloader,
		Publisher:   publisher,
		Transcriber: transcriber,
	}, notifier)

	rec, err := mgr.Submit(context.Background(), pipeline.SubmitRequest{
		SourceURL: "https://www.tiktok.com/@a/video/100",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rec.Status != records.StatusPending {
		t.Fatalf("submitted record should be pending, got %s", rec.Status)
	}
	if rec.JobID == "" {
		t.Fatal("submitted record missing job id")
	}

	final := waitForStatus(t, store, rec.ID, records.StatusCompleted)
	if final.PlaybackURL == "" || final.Transcript != "hello" {
		t.Fatalf("completed record missing stage output: %+v", final)
	}
	if final.TranscriptionStatus != records.TranscriptionCompleted {
		t.Fatalf("unexpected transcription status %s", final.TranscriptionStatus)
	}

	published, completed, errCount := notifier.snapshot()
	if published != 1 || completed != 1 {
		t.Fatalf("expected publish and completion notifications, got %d/%d", published, completed)
	}
	if errCount != 0 {
		t.Fatalf("unexpected error notifications: %d", errCount)
	}
}

func TestSubmitRejectsUnsupportedURL(t *testing.T) {
	cfg := pipelineConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := pipeline.NewManagerWithDependencies(cfg, store, logging.NewNop(), &recordingNotifier{}, dedupe.NewGuard(cfg))
	mgr.ConfigureStages(pipeline.StageSet{
		Downloader:  newStubStage("downloader"),
		Publisher:   newStubStage("publisher"),
		Transcriber: newStubStage("transcriber"),
	})

	_, err := mgr.Submit(context.Background(), pipeline.SubmitRequest{SourceURL: "https://vimeo.com/1234"})
	if !errors.Is(err, services.ErrUnsupportedURL) {
		t.Fatalf("expected unsupported url error, got %v", err)
	}

	all, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("rejected submission must not create records, found %d", len(all))
	}
}

func TestSubmitRejectsDuplicateInFlight(t *testing.T) {
	cfg := pipelineConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := pipeline.NewManagerWithDependencies(cfg, store, logging.NewNop(), &recordingNotifier{}, dedupe.NewGuard(cfg))

	url := "https://www.tiktok.com/@a/video/200"
	if _, err := mgr.Submit(context.Background(), pipeline.SubmitRequest{SourceURL: url}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	_, err := mgr.Submit(context.Background(), pipeline.SubmitRequest{SourceURL: url})
	if !errors.Is(err, services.ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestStageFailureMarksRecordFailedAndCleansUp(t *testing.T) {
	cfg := pipelineConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	notifier := &recordingNotifier{}

	staged := filepath.Join(t.TempDir(), "media.mp4")
	if err := os.WriteFile(staged, []byte("media"), 0o644); err != nil {
		t.Fatalf("write staged media: %v", err)
	}

	downloader := newStubStage("downloader")
	downloader.executeHook = func(rec *records.Record) {
		rec.MediaFile = staged
	}
	publisher := newStubStage("publisher")
	publisher.executeErr = services.Wrap(services.ErrPublish, "publishing", "publish video", "upload failed after 3 attempts", nil)

	mgr := newRunningManager(t, cfg, store, pipeline.StageSet{
		Downloader:  downloader,
		Publisher:   publisher,
		Transcriber: newStubStage("transcriber"),
	}, notifier)

	rec, err := mgr.Submit(context.Background(), pipeline.SubmitRequest{
		SourceURL: "https://www.tiktok.com/@a/video/300",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	final := waitForStatus(t, store, rec.ID, records.StatusFailed)
	if final.ErrorMessage == "" {
		t.Fatal("failed record missing error message")
	}
	if final.RemoteID != "" || final.PlaybackURL != "" {
		t.Fatalf("pre-publish failure must leave CDN fields empty: %+v", final)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatal("staged media should be removed on failure")
	}

	_, _, errCount := notifier.snapshot()
	if errCount == 0 {
		t.Fatal("expected an error notification")
	}
}

func TestEnrichmentFailureStillCompletesJob(t *testing.T) {
	cfg := pipelineConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	notifier := &recordingNotifier{}

	publisher := newStubStage("publisher")
	publisher.executeHook = func(rec *records.Record) {
		rec.RemoteID = "guid-9"
		rec.PlaybackURL = "https://iframe.mediadelivery.net/embed/42/guid-9"
	}
	transcriber := newStubStage("transcriber")
	transcriber.executeHook = func(rec *records.Record) {
		rec.TranscriptionStatus = records.TranscriptionFailed
	}

	mgr := newRunningManager(t, cfg, store, pipeline.StageSet{
		Downloader:  newStubStage("downloader"),
		Publisher:   publisher,
		Transcriber: transcriber,
	}, notifier)

	rec, err := mgr.Submit(context.Background(), pipeline.SubmitRequest{
		SourceURL: "https://www.tiktok.com/@a/video/400",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	final := waitForStatus(t, store, rec.ID, records.StatusCompleted)
	if final.TranscriptionStatus != records.TranscriptionFailed {
		t.Fatalf("expected failed transcription status, got %s", final.TranscriptionStatus)
	}
	if final.PlaybackURL == "" {
		t.Fatal("published video must stay reachable after enrichment failure")
	}

	_, completed, _ := notifier.snapshot()
	if completed != 1 {
		t.Fatalf("expected completion notification, got %d", completed)
	}
}

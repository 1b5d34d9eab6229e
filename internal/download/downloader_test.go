package download_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"reelingest/internal/download"
	"reelingest/internal/fetch"
	"reelingest/internal/logging"
	"reelingest/internal/platform"
	"reelingest/internal/records"
	"reelingest/internal/scraper"
	"reelingest/internal/services"
	"reelingest/internal/testsupport"
)

type stubResolver struct {
	media scraper.ScrapedMedia
	err   error
}

func (s *stubResolver) Resolve(ctx context.Context, sourceURL string) (scraper.ScrapedMedia, error) {
	return s.media, s.err
}

type stubFetcher struct {
	size        int64
	contentType string
	err         error
}

func (s *stubFetcher) Fetch(ctx context.Context, mediaURL, destDir, baseName string) (fetch.StagedMedia, error) {
	if s.err != nil {
		return fetch.StagedMedia{}, s.err
	}
	path := filepath.Join(destDir, baseName+".mp4")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fetch.StagedMedia{}, err
	}
	if err := os.WriteFile(path, make([]byte, s.size), 0o644); err != nil {
		return fetch.StagedMedia{}, err
	}
	return fetch.StagedMedia{Path: path, ContentType: s.contentType, Size: s.size}, nil
}

func TestDownloaderStagesMediaAndMetadata(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	rec := testsupport.NewRecord(t, store, "https://www.tiktok.com/@a/video/1", platform.TikTok)

	resolver := &stubResolver{media: scraper.ScrapedMedia{
		Platform:     platform.TikTok,
		MediaURL:     "https://cdn.example.com/video.mp4",
		ThumbnailURL: "https://cdn.example.com/thumb.jpg",
		Title:        "A Video",
		Author:       "someone",
		Hashtags:     []string{"cooking"},
		Metrics:      records.Metrics{Views: 10},
	}}
	handler := download.NewDownloaderWithDependencies(cfg, store, logging.NewNop(), resolver, &stubFetcher{size: 2048, contentType: "video/webm"})

	if err := handler.Prepare(context.Background(), rec); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), rec); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if rec.Title != "A Video" || rec.Author != "someone" {
		t.Fatalf("metadata not applied: %+v", rec)
	}
	if rec.ThumbnailSourceURL != "https://cdn.example.com/thumb.jpg" {
		t.Fatalf("thumbnail source not recorded: %q", rec.ThumbnailSourceURL)
	}
	if rec.MediaSize != 2048 {
		t.Fatalf("unexpected media size %d", rec.MediaSize)
	}
	if rec.MediaContentType != "video/webm" {
		t.Fatalf("expected fetched content type on record, got %q", rec.MediaContentType)
	}
	if _, err := os.Stat(rec.MediaFile); err != nil {
		t.Fatalf("staged media missing: %v", err)
	}
	if got := rec.Metrics(); got.Views != 10 {
		t.Fatalf("metrics not applied: %+v", got)
	}
}

func TestDownloaderDefaultsContentTypeWhenHostOmitsIt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	rec := testsupport.NewRecord(t, store, "https://www.tiktok.com/@a/video/9", platform.TikTok)

	resolver := &stubResolver{media: scraper.ScrapedMedia{
		Platform: platform.TikTok,
		MediaURL: "https://cdn.example.com/video",
	}}
	handler := download.NewDownloaderWithDependencies(cfg, store, logging.NewNop(), resolver, &stubFetcher{size: 64})

	if err := handler.Execute(context.Background(), rec); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if rec.MediaContentType != "video/mp4" {
		t.Fatalf("expected mp4 fallback for missing content type, got %q", rec.MediaContentType)
	}
}

func TestDownloaderPropagatesResolutionFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	rec := testsupport.NewRecord(t, store, "https://www.tiktok.com/@a/video/2", platform.TikTok)

	resolver := &stubResolver{err: services.Wrap(services.ErrResolution, "resolving", "run actor", "no results", nil)}
	handler := download.NewDownloaderWithDependencies(cfg, store, logging.NewNop(), resolver, &stubFetcher{})

	err := handler.Execute(context.Background(), rec)
	if !errors.Is(err, services.ErrResolution) {
		t.Fatalf("expected resolution error, got %v", err)
	}
	if rec.MediaFile != "" {
		t.Fatalf("media file should stay empty on failure")
	}
}

func TestDownloaderHealthRequiresToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Scraper.APIToken = ""
	store := testsupport.MustOpenStore(t, cfg)
	handler := download.NewDownloaderWithDependencies(cfg, store, logging.NewNop(), &stubResolver{}, &stubFetcher{})

	if health := handler.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy without api token")
	}
}

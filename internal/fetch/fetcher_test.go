package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelingest/internal/fetch"
	"reelingest/internal/logging"
	"reelingest/internal/services"
)

func TestFetchWritesMediaToStaging(t *testing.T) {
	payload := strings.Repeat("v", 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); !strings.Contains(got, "Mozilla") {
			t.Errorf("expected browser user agent, got %q", got)
		}
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	dir := t.TempDir()
	fetcher := fetch.NewFetcher(logging.NewNop())
	staged, err := fetcher.Fetch(context.Background(), srv.URL, dir, "job-1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if staged.Size != int64(len(payload)) {
		t.Fatalf("expected %d bytes, got %d", len(payload), staged.Size)
	}
	if staged.ContentType != "video/mp4" {
		t.Fatalf("expected reported content type, got %q", staged.ContentType)
	}
	if filepath.Dir(staged.Path) != dir {
		t.Fatalf("file written outside staging dir: %s", staged.Path)
	}
	data, err := os.ReadFile(staged.Path)
	if err != nil {
		t.Fatalf("read staged file: %v", err)
	}
	if string(data) != payload {
		t.Fatalf("staged file content mismatch")
	}
}

func TestFetchAcceptsMissingContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Suppress Go's content sniffing so no header reaches the client.
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte("raw-bytes"))
	}))
	defer srv.Close()

	fetcher := fetch.NewFetcher(logging.NewNop())
	staged, err := fetcher.Fetch(context.Background(), srv.URL, t.TempDir(), "job-5")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if staged.ContentType != "" {
		t.Fatalf("expected empty content type to be reported as-is, got %q", staged.ContentType)
	}
	if _, err := os.Stat(staged.Path); err != nil {
		t.Fatalf("staged media missing: %v", err)
	}
}

func TestFetchRejectsNonVideoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>blocked</html>"))
	}))
	defer srv.Close()

	fetcher := fetch.NewFetcher(logging.NewNop())
	_, err := fetcher.Fetch(context.Background(), srv.URL, t.TempDir(), "job-2")
	if !errors.Is(err, services.ErrInvalidMedia) {
		t.Fatalf("expected invalid media error, got %v", err)
	}
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusForbidden)
	}))
	defer srv.Close()

	fetcher := fetch.NewFetcher(logging.NewNop())
	_, err := fetcher.Fetch(context.Background(), srv.URL, t.TempDir(), "job-3")
	if !errors.Is(err, services.ErrInvalidMedia) {
		t.Fatalf("expected invalid media error, got %v", err)
	}
}

func TestFetchRejectsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
	}))
	defer srv.Close()

	dir := t.TempDir()
	fetcher := fetch.NewFetcher(logging.NewNop())
	_, err := fetcher.Fetch(context.Background(), srv.URL, dir, "job-4")
	if !errors.Is(err, services.ErrInvalidMedia) {
		t.Fatalf("expected invalid media error, got %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read staging dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected staging cleanup, found %d entries", len(entries))
	}
}

func TestFetchThumbnailEnforcesSizeCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	fetcher := fetch.NewFetcher(logging.NewNop())
	if _, err := fetcher.FetchThumbnail(context.Background(), srv.URL, 1024); err == nil {
		t.Fatal("expected oversize thumbnail to fail")
	}
	payload, err := fetcher.FetchThumbnail(context.Background(), srv.URL, 4096)
	if err != nil {
		t.Fatalf("FetchThumbnail: %v", err)
	}
	if len(payload) != 2048 {
		t.Fatalf("expected 2048 bytes, got %d", len(payload))
	}
}

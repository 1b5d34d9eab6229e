package apify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reelingest/internal/services/apify"
)

func newActorStub(t *testing.T, runStatuses []string, items string) *httptest.Server {
	t.Helper()
	polls := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/acts/"):
			var input map[string]any
			if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
				t.Errorf("decode actor input: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"id": "run-1"}})
		case strings.Contains(r.URL.Path, "/actor-runs/run-1"):
			status := runStatuses[len(runStatuses)-1]
			if polls < len(runStatuses) {
				status = runStatuses[polls]
			}
			polls++
			json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
				"status":           status,
				"defaultDatasetId": "ds-1",
			}})
		case strings.Contains(r.URL.Path, "/datasets/ds-1/items"):
			w.Write([]byte(items))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestRunActorPollsUntilSuccess(t *testing.T) {
	srv := newActorStub(t, []string{"RUNNING", "SUCCEEDED"}, `[{"videoUrl":"https://cdn.example/a.mp4"}]`)
	defer srv.Close()

	client := apify.NewClient(apify.Config{
		APIToken:     "token",
		BaseURL:      srv.URL,
		PollInterval: 5 * time.Millisecond,
	})

	items, err := client.RunActor(context.Background(), "clockworks~tiktok-scraper", map[string]any{"postURLs": []string{"u"}})
	if err != nil {
		t.Fatalf("RunActor: %v", err)
	}
	if !strings.Contains(string(items), "a.mp4") {
		t.Fatalf("unexpected dataset payload: %s", items)
	}
}

func TestRunActorSurfacesFailedRun(t *testing.T) {
	srv := newActorStub(t, []string{"FAILED"}, `[]`)
	defer srv.Close()

	client := apify.NewClient(apify.Config{
		APIToken:     "token",
		BaseURL:      srv.URL,
		PollInterval: 5 * time.Millisecond,
	})

	_, err := client.RunActor(context.Background(), "actor", nil)
	if err == nil || !strings.Contains(err.Error(), "FAILED") {
		t.Fatalf("err = %v, want failed-run error", err)
	}
}

func TestRunActorHonorsContextDeadline(t *testing.T) {
	srv := newActorStub(t, []string{"RUNNING"}, `[]`)
	defer srv.Close()

	client := apify.NewClient(apify.Config{
		APIToken:     "token",
		BaseURL:      srv.URL,
		PollInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.RunActor(ctx, "actor", nil)
	if err == nil {
		t.Fatal("expected context deadline to abort the run")
	}
}

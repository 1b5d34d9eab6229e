package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelingest/internal/config"
)

const userAgent = "Reelingest-Go/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyVideoPublished(ctx context.Context, title, playbackURL string) error
	NotifyIngestCompleted(ctx context.Context, title string, enriched bool) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		sendCompleted: cfg.Notifications.Completed,
		sendErrors:    cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	sendCompleted bool
	sendErrors    bool
}

func (n *ntfyService) NotifyVideoPublished(ctx context.Context, title, playbackURL string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "untitled video"
	}
	data := payload{
		title:   "Reelingest - Published",
		message: fmt.Sprintf("Video live on CDN: %s\n%s", title, strings.TrimSpace(playbackURL)),
		tags:    []string{"reelingest", "publish", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyIngestCompleted(ctx context.Context, title string, enriched bool) error {
	if !n.sendCompleted {
		return nil
	}
	title = strings.TrimSpace(title)
	message := fmt.Sprintf("Ingest complete: %s", title)
	if !enriched {
		message += "\nTranscription unavailable"
	}
	data := payload{
		title:    "Reelingest - Complete",
		message:  message,
		tags:     []string{"reelingest", "ingest", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.sendErrors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Reelingest - Error",
		message:  builder.String(),
		tags:     []string{"reelingest", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Reelingest - Test",
		message:  "Notification system test",
		tags:     []string{"reelingest", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyVideoPublished(context.Context, string, string) error { return nil }
func (noopService) NotifyIngestCompleted(context.Context, string, bool) error  { return nil }
func (noopService) NotifyError(context.Context, error, string) error           { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }

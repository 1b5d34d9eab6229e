package bunny

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://video.bunnycdn.com"

	defaultMaxAttempts       = 3
	defaultBaseTimeout       = 120 * time.Second
	defaultTimeoutStep       = 60 * time.Second
	defaultThumbnailAttempts = 2

	cleanBackoffBase = 2 * time.Second
	cleanBackoffMax  = 30 * time.Second
	netBackoffBase   = 3 * time.Second
	netBackoffMax    = 60 * time.Second

	// Thumbnails are small and optional, so their retries cap far lower
	// than video uploads.
	thumbBackoffMaxClean = 5 * time.Second
	thumbBackoffMaxNet   = 10 * time.Second
)

// Config captures the runtime settings required to talk to the stream API.
type Config struct {
	APIKey      string
	BaseURL     string
	LibraryID   string
	CDNHostname string

	MaxAttempts       int
	BaseTimeout       time.Duration
	TimeoutStep       time.Duration
	ThumbnailAttempts int
}

// Client wraps the Bunny Stream video library API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	sleeper    func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a stream client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.LibraryID = strings.TrimSpace(cfg.LibraryID)
	cfg.CDNHostname = normalizeCDNHostname(cfg.CDNHostname)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BaseTimeout <= 0 {
		cfg.BaseTimeout = defaultBaseTimeout
	}
	if cfg.TimeoutStep <= 0 {
		cfg.TimeoutStep = defaultTimeoutStep
	}
	if cfg.ThumbnailAttempts <= 0 {
		cfg.ThumbnailAttempts = defaultThumbnailAttempts
	}

	client := &Client{
		cfg: cfg,
		// Per-attempt deadlines come from context timeouts, not the client.
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{}
	}
	return client
}

type createVideoResponse struct {
	GUID string `json:"guid"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("stream request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// createVideo registers a new video in the library and returns its GUID.
func (c *Client) createVideo(ctx context.Context, title string) (string, error) {
	endpoint := fmt.Sprintf("%s/library/%s/videos", c.cfg.BaseURL, c.cfg.LibraryID)
	body, err := json.Marshal(map[string]string{"title": title})
	if err != nil {
		return "", fmt.Errorf("stream create: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("stream create: new request: %w", err)
	}
	req.Header.Set("AccessKey", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("stream create: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("stream create: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: string(payload)}
	}

	var created createVideoResponse
	if err := json.Unmarshal(payload, &created); err != nil {
		return "", fmt.Errorf("stream create: decode response: %w", err)
	}
	if strings.TrimSpace(created.GUID) == "" {
		return "", fmt.Errorf("stream create: response missing video guid")
	}
	return created.GUID, nil
}

// uploadVideo streams the file at mediaPath into the registered video slot.
func (c *Client) uploadVideo(ctx context.Context, guid, mediaPath string) error {
	file, err := os.Open(mediaPath)
	if err != nil {
		return fmt.Errorf("stream upload: open media: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stream upload: stat media: %w", err)
	}

	endpoint := fmt.Sprintf("%s/library/%s/videos/%s", c.cfg.BaseURL, c.cfg.LibraryID, guid)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, file)
	if err != nil {
		return fmt.Errorf("stream upload: new request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("AccessKey", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stream upload: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// uploadThumbnail replaces the generated thumbnail for guid with payload.
func (c *Client) uploadThumbnail(ctx context.Context, guid string, payload []byte, contentType string) error {
	endpoint := fmt.Sprintf("%s/library/%s/videos/%s/thumbnail", c.cfg.BaseURL, c.cfg.LibraryID, guid)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("stream thumbnail: new request: %w", err)
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	req.Header.Set("AccessKey", c.cfg.APIKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stream thumbnail: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isNetworkError separates transport failures (timeouts, resets, DNS) from
// requests the API received and rejected.
func isNetworkError(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

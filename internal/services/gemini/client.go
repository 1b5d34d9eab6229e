package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL      = "https://generativelanguage.googleapis.com"
	defaultModel        = "gemini-2.0-flash"
	defaultPollInterval = 2 * time.Second
	defaultPollTimeout  = 300 * time.Second
)

// Config captures the runtime settings required to talk to the Gemini API.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	PollInterval time.Duration
	PollTimeout  time.Duration

	// TempDir is where media payloads are staged before upload. Empty
	// means the system temp directory.
	TempDir string
}

// Client wraps the Gemini file and content generation APIs.
type Client struct {
	cfg        Config
	httpClient *http.Client
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

// NewClient constructs a Gemini client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.TempDir = strings.TrimSpace(cfg.TempDir)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = defaultPollTimeout
	}

	client := &Client{
		cfg:        cfg,
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

// remoteFile identifies an uploaded file on the API side.
type remoteFile struct {
	Name  string `json:"name"`
	URI   string `json:"uri"`
	State string `json:"state"`
}

type fileEnvelope struct {
	File remoteFile `json:"file"`
}

// uploadFile pushes the media at path to the file API and returns its handle.
func (c *Client) uploadFile(ctx context.Context, path, mimeType string) (remoteFile, error) {
	var empty remoteFile
	file, err := os.Open(path)
	if err != nil {
		return empty, fmt.Errorf("gemini upload: open media: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return empty, fmt.Errorf("gemini upload: stat media: %w", err)
	}

	endpoint := c.cfg.BaseURL + "/upload/v1beta/files"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, file)
	if err != nil {
		return empty, fmt.Errorf("gemini upload: new request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	req.Header.Set("X-Goog-Upload-Protocol", "raw")
	req.Header.Set("Content-Type", mimeType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, fmt.Errorf("gemini upload: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("gemini upload: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return empty, fmt.Errorf("gemini upload: http %d: %s", resp.StatusCode, snippet(body))
	}

	var envelope fileEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return empty, fmt.Errorf("gemini upload: decode response: %w", err)
	}
	if envelope.File.Name == "" {
		// Some API surfaces return the file object unwrapped.
		if err := json.Unmarshal(body, &envelope.File); err != nil || envelope.File.Name == "" {
			return empty, fmt.Errorf("gemini upload: response missing file name")
		}
	}
	return envelope.File, nil
}

// getFile fetches the current state of an uploaded file.
func (c *Client) getFile(ctx context.Context, name string) (remoteFile, error) {
	var empty remoteFile
	endpoint := fmt.Sprintf("%s/v1beta/%s", c.cfg.BaseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return empty, fmt.Errorf("gemini file: new request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, fmt.Errorf("gemini file: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("gemini file: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return empty, fmt.Errorf("gemini file: http %d: %s", resp.StatusCode, snippet(body))
	}

	var file remoteFile
	if err := json.Unmarshal(body, &file); err != nil {
		return empty, fmt.Errorf("gemini file: decode response: %w", err)
	}
	return file, nil
}

// deleteFile removes an uploaded file. Best effort; callers ignore errors.
func (c *Client) deleteFile(ctx context.Context, name string) error {
	endpoint := fmt.Sprintf("%s/v1beta/%s", c.cfg.BaseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("gemini delete: new request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini delete: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gemini delete: http %d", resp.StatusCode)
	}
	return nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"file_data,omitempty"`
}

type fileData struct {
	MimeType string `json:"mime_type"`
	FileURI  string `json:"file_uri"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// generateContent runs the model over an uploaded file plus prompt and
// returns the concatenated text output.
func (c *Client) generateContent(ctx context.Context, file remoteFile, mimeType, prompt string) (string, error) {
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)
	payload := generateRequest{
		Contents: []content{{
			Parts: []part{
				{FileData: &fileData{MimeType: mimeType, FileURI: file.URI}},
				{Text: prompt},
			},
		}},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gemini generate: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("gemini generate: new request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini generate: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gemini generate: http %d: %s", resp.StatusCode, snippet(body))
	}

	var response generateResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("gemini generate: decode response: %w", err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("gemini generate: api error: %s", strings.TrimSpace(response.Error.Message))
	}

	var text strings.Builder
	for _, candidate := range response.Candidates {
		for _, p := range candidate.Content.Parts {
			text.WriteString(p.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", fmt.Errorf("gemini generate: empty response")
	}
	return text.String(), nil
}

func snippet(body []byte) string {
	const limit = 200
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > limit {
		return trimmed[:limit] + "..."
	}
	return trimmed
}

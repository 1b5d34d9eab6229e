package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL      = "https://api.apify.com/v2"
	defaultPollInterval = 3 * time.Second
)

// Config captures the runtime settings required to talk to the actor API.
type Config struct {
	APIToken     string
	BaseURL      string
	PollInterval time.Duration
}

// Client wraps the actor-run REST API: start a run, poll its status, fetch the
// dataset items it produced.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client (used in tests).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs an actor API client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.PollInterval <= 0 {
		client.cfg.PollInterval = defaultPollInterval
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// RunActor starts an actor run with the given input, waits for it to finish,
// and returns the raw dataset items. The caller bounds total duration through
// ctx.
func (c *Client) RunActor(ctx context.Context, actorID string, input map[string]any) ([]byte, error) {
	runID, err := c.startRun(ctx, actorID, input)
	if err != nil {
		return nil, fmt.Errorf("start actor run: %w", err)
	}
	datasetID, err := c.waitForRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("wait for actor run: %w", err)
	}
	items, err := c.datasetItems(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset items: %w", err)
	}
	return items, nil
}

func (c *Client) startRun(ctx context.Context, actorID string, input map[string]any) (string, error) {
	endpoint := fmt.Sprintf("%s/acts/%s/runs?token=%s", c.cfg.BaseURL, actorID, c.cfg.APIToken)
	body, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("encode input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode run response: %w", err)
	}
	if result.Data.ID == "" {
		return "", fmt.Errorf("run response missing id")
	}
	return result.Data.ID, nil
}

func (c *Client) waitForRun(ctx context.Context, runID string) (string, error) {
	statusURL := fmt.Sprintf("%s/actor-runs/%s?token=%s", c.cfg.BaseURL, runID, c.cfg.APIToken)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}

		status, datasetID, err := c.runStatus(ctx, statusURL)
		if err != nil {
			return "", err
		}
		switch status {
		case "SUCCEEDED":
			return datasetID, nil
		case "FAILED", "ABORTED", "TIMED-OUT":
			return "", fmt.Errorf("actor run ended with status %s", status)
		}
	}
}

func (c *Client) runStatus(ctx context.Context, statusURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	var status struct {
		Data struct {
			Status           string `json:"status"`
			DefaultDatasetID string `json:"defaultDatasetId"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", "", fmt.Errorf("decode run status: %w", err)
	}
	return status.Data.Status, status.Data.DefaultDatasetID, nil
}

func (c *Client) datasetItems(ctx context.Context, datasetID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/datasets/%s/items?token=%s", c.cfg.BaseURL, datasetID, c.cfg.APIToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected dataset status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

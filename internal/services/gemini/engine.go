package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelingest/internal/records"
	"reelingest/internal/services"
)

const mediaMimeType = "video/mp4"

// File states reported by the file API while ingestion runs.
const (
	stateProcessing = "PROCESSING"
	stateActive     = "ACTIVE"
	stateFailed     = "FAILED"
)

// ContentMetadata carries the details the model observed in the video
// itself. All fields are best-effort; any of them may be empty.
type ContentMetadata struct {
	Author      string
	Description string
	Hashtags    []string
}

// Analysis is the structured output of a transcription run. Transcript is
// always populated when the run succeeds; the remaining fields may be
// empty when the model response could not be parsed as structured JSON.
type Analysis struct {
	Transcript    string
	Components    records.Components
	VisualContext string
	Metadata      ContentMetadata
	Raw           string
}

// Engine runs media through the model and extracts transcript plus content
// components. It owns its temp files and remote uploads for the duration of
// a call.
type Engine struct {
	client *Client
}

// NewEngine wraps client into a transcription engine.
func NewEngine(client *Client) *Engine {
	return &Engine{client: client}
}

// Transcribe analyzes the supplied media payload. The payload is staged to a
// private temp file for upload; both the temp file and the remote file are
// always cleaned up before return, including on error.
func (e *Engine) Transcribe(ctx context.Context, payload []byte, platformHint string) (Analysis, error) {
	var empty Analysis
	if strings.TrimSpace(e.client.cfg.APIKey) == "" {
		return empty, services.Wrap(services.ErrConfiguration, "transcribing", "transcribe media",
			"gemini api key required", nil)
	}
	if len(payload) == 0 {
		return empty, services.Wrap(services.ErrInvalidMedia, "transcribing", "transcribe media",
			"empty media payload", nil)
	}

	tmp, err := os.CreateTemp(e.client.cfg.TempDir, "reelingest-transcribe-*.mp4")
	if err != nil {
		return empty, services.Wrap(services.ErrTransient, "transcribing", "stage media", "", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return empty, services.Wrap(services.ErrTransient, "transcribing", "stage media", "", err)
	}
	if err := tmp.Close(); err != nil {
		return empty, services.Wrap(services.ErrTransient, "transcribing", "stage media", "", err)
	}

	file, err := e.client.uploadFile(ctx, tmpPath, mediaMimeType)
	if err != nil {
		return empty, services.Wrap(services.ErrTransient, "transcribing", "upload media", "", err)
	}
	// The remote copy must not outlive the call even when the parent
	// context is already cancelled.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		_ = e.client.deleteFile(cleanupCtx, file.Name)
	}()

	ready, err := e.awaitFileActive(ctx, file)
	if err != nil {
		return empty, err
	}

	response, err := e.client.generateContent(ctx, ready, mediaMimeType, analysisPrompt(platformHint))
	if err != nil {
		return empty, services.Wrap(services.ErrTransient, "transcribing", "generate analysis", "", err)
	}

	return parseAnalysis(response), nil
}

// awaitFileActive polls the file API until ingestion finishes or the poll
// budget runs out.
func (e *Engine) awaitFileActive(ctx context.Context, file remoteFile) (remoteFile, error) {
	var empty remoteFile
	if file.State == stateActive {
		return file, nil
	}

	deadline := time.Now().Add(e.client.cfg.PollTimeout)
	ticker := time.NewTicker(e.client.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return empty, ctx.Err()
		case <-ticker.C:
		}

		current, err := e.client.getFile(ctx, file.Name)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return empty, err
			}
			// Transient poll errors count against the budget but do not
			// abort the wait.
			current = remoteFile{Name: file.Name, URI: file.URI, State: stateProcessing}
		}

		switch current.State {
		case stateActive:
			return current, nil
		case stateFailed:
			return empty, services.Wrap(services.ErrProcessingFailed, "transcribing", "await processing",
				fmt.Sprintf("file %s failed remote processing", filepath.Base(file.Name)), nil)
		}

		if time.Now().After(deadline) {
			return empty, services.Wrap(services.ErrProcessingTimeout, "transcribing", "await processing",
				fmt.Sprintf("file still processing after %s", e.client.cfg.PollTimeout), nil)
		}
	}
}

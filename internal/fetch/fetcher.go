package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelingest/internal/logging"
	"reelingest/internal/services"
)

// Browser-like UA; some media CDNs reject default Go clients.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

const defaultFetchTimeout = 10 * time.Minute

// StagedMedia describes a media file written into staging. ContentType is
// the value the media host reported; it is empty when the host omitted the
// header.
type StagedMedia struct {
	Path        string
	ContentType string
	Size        int64
}

// Fetcher downloads resolved media URLs into the staging directory.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewFetcher constructs a fetcher with a download-appropriate HTTP client.
func NewFetcher(logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: defaultFetchTimeout},
		logger: logging.NewComponentLogger(logger, "fetch"),
	}
}

// WithHTTPClient overrides the HTTP client (used in tests).
func (f *Fetcher) WithHTTPClient(client *http.Client) *Fetcher {
	f.client = client
	return f
}

// Fetch streams mediaURL into a file under destDir and reports where it
// landed along with the content type the host declared. Non-2xx responses
// and non-video payloads fail with ErrInvalidMedia.
func (f *Fetcher) Fetch(ctx context.Context, mediaURL, destDir, baseName string) (StagedMedia, error) {
	var empty StagedMedia
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return empty, services.Wrap(services.ErrTransient, "downloading", "prepare staging", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return empty, services.Wrap(services.ErrInvalidMedia, "downloading", "build request", "", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return empty, services.Wrap(services.ErrTransient, "downloading", "fetch media", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return empty, services.Wrap(services.ErrInvalidMedia, "downloading", "fetch media",
			fmt.Sprintf("unexpected status %d from media host", resp.StatusCode), nil)
	}
	contentType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if contentType == "" {
		// Accept but flag it; resolved CDN links should declare video/*.
		f.logger.Warn("media host omitted content type",
			logging.String("url", mediaURL),
		)
	} else if !isVideoContentType(contentType) {
		return empty, services.Wrap(services.ErrInvalidMedia, "downloading", "fetch media",
			fmt.Sprintf("media host returned %q instead of video content", contentType), nil)
	}

	target := filepath.Join(destDir, baseName+".mp4")
	file, err := os.Create(target)
	if err != nil {
		return empty, services.Wrap(services.ErrTransient, "downloading", "create staging file", "", err)
	}

	written, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if copyErr != nil {
		os.Remove(target)
		return empty, services.Wrap(services.ErrTransient, "downloading", "stream media", "", copyErr)
	}
	if closeErr != nil {
		os.Remove(target)
		return empty, services.Wrap(services.ErrTransient, "downloading", "flush staging file", "", closeErr)
	}
	if written == 0 {
		os.Remove(target)
		return empty, services.Wrap(services.ErrInvalidMedia, "downloading", "stream media",
			"media host returned an empty body", nil)
	}

	f.logger.Info("downloaded media",
		logging.String("path", target),
		logging.Int64("bytes", written),
	)
	return StagedMedia{Path: target, ContentType: contentType, Size: written}, nil
}

// FetchThumbnail downloads a thumbnail image, capped at maxBytes. Thumbnail
// failures are reported but callers treat them as non-fatal.
func (f *Fetcher) FetchThumbnail(ctx context.Context, thumbURL string, maxBytes int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, thumbURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build thumbnail request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch thumbnail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("thumbnail host returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read thumbnail: %w", err)
	}
	if int64(len(payload)) > maxBytes {
		return nil, fmt.Errorf("thumbnail exceeds %d byte limit", maxBytes)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("thumbnail host returned an empty body")
	}
	return payload, nil
}

func isVideoContentType(contentType string) bool {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if strings.HasPrefix(normalized, "video/") {
		return true
	}
	// Some CDNs serve MP4 as a generic stream.
	return strings.HasPrefix(normalized, "application/octet-stream") ||
		strings.HasPrefix(normalized, "binary/octet-stream")
}

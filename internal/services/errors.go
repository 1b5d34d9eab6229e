package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedURL marks submissions whose source URL cannot be ingested.
	ErrUnsupportedURL = errors.New("unsupported url")
	// ErrResolution marks scraper failures to resolve a playable media URL.
	ErrResolution = errors.New("resolution error")
	// ErrInvalidMedia marks fetched payloads that are not actually video.
	ErrInvalidMedia = errors.New("invalid media")
	// ErrPublish marks CDN publish failures after the retry budget is exhausted.
	ErrPublish = errors.New("publish error")
	// ErrProcessingFailed marks terminal failures reported by the AI backend.
	ErrProcessingFailed = errors.New("processing failed")
	// ErrProcessingTimeout marks AI file processing that never left its pending state.
	ErrProcessingTimeout = errors.New("processing timeout")
	// ErrDuplicate marks submissions for a source URL that is already in flight.
	ErrDuplicate = errors.New("duplicate submission")
	// ErrConfiguration marks missing or inconsistent configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks retryable failures with no more specific classification.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

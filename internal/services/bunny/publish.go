package bunny

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reelingest/internal/services"
)

// PublishedMedia describes a video that is live on the CDN.
type PublishedMedia struct {
	VideoGUID    string
	PlaybackURL  string
	DirectURL    string
	ThumbnailURL string
}

// Publish pushes the media file at mediaPath to the stream library and
// returns the CDN locations once the upload succeeds.
//
// Each attempt registers a fresh video slot and uploads into it, bounded by
// an escalating per-attempt deadline. Retries back off longer after network
// failures than after rejected requests. After the final attempt the error
// carries ErrPublish.
func (c *Client) Publish(ctx context.Context, mediaPath, title string) (PublishedMedia, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return PublishedMedia{}, services.Wrap(services.ErrConfiguration, "publishing", "publish video",
			"stream api key required", nil)
	}
	if c.cfg.LibraryID == "" {
		return PublishedMedia{}, services.Wrap(services.ErrConfiguration, "publishing", "publish video",
			"stream library id required", nil)
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		guid, err := c.publishOnce(ctx, mediaPath, title, attempt)
		if err == nil {
			return PublishedMedia{
				VideoGUID:    guid,
				PlaybackURL:  c.PlaybackURL(guid),
				DirectURL:    c.DirectURL(guid),
				ThumbnailURL: c.ThumbnailURL(guid),
			}, nil
		}
		lastErr = err

		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			break
		}
		if attempt == c.cfg.MaxAttempts {
			break
		}
		if err := c.sleep(ctx, retryBackoff(attempt, isNetworkError(err))); err != nil {
			lastErr = err
			break
		}
	}

	return PublishedMedia{}, services.Wrap(services.ErrPublish, "publishing", "publish video",
		fmt.Sprintf("upload failed after %d attempts", c.cfg.MaxAttempts), lastErr)
}

func (c *Client) publishOnce(ctx context.Context, mediaPath, title string, attempt int) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout(attempt))
	defer cancel()

	guid, err := c.createVideo(attemptCtx, title)
	if err != nil {
		return "", fmt.Errorf("attempt %d: %w", attempt, err)
	}
	if err := c.uploadVideo(attemptCtx, guid, mediaPath); err != nil {
		return "", fmt.Errorf("attempt %d: %w", attempt, err)
	}
	return guid, nil
}

// PublishThumbnail replaces the auto-generated thumbnail for guid. Failures
// here never invalidate the published video; callers log and move on.
func (c *Client) PublishThumbnail(ctx context.Context, guid string, payload []byte, contentType string) error {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.ThumbnailAttempts; attempt++ {
		err := c.uploadThumbnail(ctx, guid, payload, contentType)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil || attempt == c.cfg.ThumbnailAttempts {
			break
		}
		if err := c.sleep(ctx, thumbnailBackoff(attempt, isNetworkError(err))); err != nil {
			break
		}
	}
	return fmt.Errorf("thumbnail upload failed after %d attempts: %w", c.cfg.ThumbnailAttempts, lastErr)
}

// attemptTimeout grows linearly so later attempts survive slow uploads.
func (c *Client) attemptTimeout(attempt int) time.Duration {
	return c.cfg.BaseTimeout + time.Duration(attempt-1)*c.cfg.TimeoutStep
}

func retryBackoff(attempt int, network bool) time.Duration {
	if network {
		return backoffDelay(attempt, netBackoffBase, netBackoffMax)
	}
	return backoffDelay(attempt, cleanBackoffBase, cleanBackoffMax)
}

func thumbnailBackoff(attempt int, network bool) time.Duration {
	if network {
		return backoffDelay(attempt, netBackoffBase, thumbBackoffMaxNet)
	}
	return backoffDelay(attempt, cleanBackoffBase, thumbBackoffMaxClean)
}

func backoffDelay(attempt int, base, maxDelay time.Duration) time.Duration {
	delay := base << (attempt - 1)
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}
	return delay
}

package publish

import (
	"context"
	"strings"
	"time"

	"log/slog"

	"reelingest/internal/config"
	"reelingest/internal/fetch"
	"reelingest/internal/logging"
	"reelingest/internal/records"
	"reelingest/internal/services/bunny"
	"reelingest/internal/stage"
)

// StreamClient pushes staged media and thumbnails to the CDN.
type StreamClient interface {
	Publish(ctx context.Context, mediaPath, title string) (bunny.PublishedMedia, error)
	PublishThumbnail(ctx context.Context, guid string, payload []byte, contentType string) error
}

// ThumbnailFetcher downloads thumbnail bytes with a size cap.
type ThumbnailFetcher interface {
	FetchThumbnail(ctx context.Context, thumbURL string, maxBytes int64) ([]byte, error)
}

// Publisher uploads staged media to the CDN and records playback locations.
type Publisher struct {
	cfg     *config.Config
	store   *records.Store
	logger  *slog.Logger
	client  StreamClient
	fetcher ThumbnailFetcher
}

// NewPublisher constructs the publish handler using default dependencies.
func NewPublisher(cfg *config.Config, store *records.Store, logger *slog.Logger) *Publisher {
	client := bunny.NewClient(bunny.Config{
		APIKey:            cfg.Stream.APIKey,
		BaseURL:           cfg.Stream.BaseURL,
		LibraryID:         cfg.Stream.LibraryID,
		CDNHostname:       cfg.Stream.CDNHostname,
		MaxAttempts:       cfg.Stream.UploadMaxAttempts,
		BaseTimeout:       time.Duration(cfg.Stream.UploadBaseTimeout) * time.Second,
		TimeoutStep:       time.Duration(cfg.Stream.UploadTimeoutStep) * time.Second,
		ThumbnailAttempts: cfg.Stream.ThumbnailAttempts,
	})
	return NewPublisherWithDependencies(cfg, store, logger, client, fetch.NewFetcher(logger))
}

// NewPublisherWithDependencies allows injecting all collaborators (used in tests).
func NewPublisherWithDependencies(cfg *config.Config, store *records.Store, logger *slog.Logger, client StreamClient, fetcher ThumbnailFetcher) *Publisher {
	return &Publisher{
		cfg:     cfg,
		store:   store,
		logger:  logging.NewComponentLogger(logger, "publisher"),
		client:  client,
		fetcher: fetcher,
	}
}

func (p *Publisher) Prepare(ctx context.Context, rec *records.Record) error {
	logger := logging.WithContext(ctx, p.logger)
	rec.SetProgress("Publishing", "Uploading to CDN", 0)
	rec.ErrorMessage = ""
	logger.Info("starting publish", logging.String("media_file", rec.MediaFile))
	return nil
}

func (p *Publisher) Execute(ctx context.Context, rec *records.Record) error {
	logger := logging.WithContext(ctx, p.logger)

	title := rec.Title
	if strings.TrimSpace(title) == "" {
		title = rec.JobID
	}

	published, err := p.client.Publish(ctx, rec.MediaFile, title)
	if err != nil {
		return err
	}

	rec.RemoteID = published.VideoGUID
	rec.PlaybackURL = published.PlaybackURL
	rec.DirectURL = published.DirectURL
	rec.ThumbnailURL = published.ThumbnailURL
	rec.SetProgress("Publishing", "Video live on CDN", 80)

	logger.Info("video published",
		logging.String("remote_id", published.VideoGUID),
		logging.String("playback_url", published.PlaybackURL),
	)

	// Custom thumbnails are cosmetic; the published video stands either way.
	p.publishThumbnail(ctx, rec, logger)
	rec.SetProgress("Publishing", "Publish complete", 100)
	return nil
}

func (p *Publisher) publishThumbnail(ctx context.Context, rec *records.Record, logger *slog.Logger) {
	if strings.TrimSpace(rec.ThumbnailSourceURL) == "" {
		return
	}
	maxBytes := int64(p.cfg.Stream.MaxThumbnailSizeMiB) << 20
	payload, err := p.fetcher.FetchThumbnail(ctx, rec.ThumbnailSourceURL, maxBytes)
	if err != nil {
		logger.Warn("thumbnail fetch failed", logging.Error(err))
		return
	}
	if err := p.client.PublishThumbnail(ctx, rec.RemoteID, payload, "image/jpeg"); err != nil {
		logger.Warn("thumbnail upload failed", logging.Error(err))
	}
}

func (p *Publisher) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(p.cfg.Stream.APIKey) == "" {
		return stage.Unhealthy("publisher", "stream api key not configured")
	}
	if strings.TrimSpace(p.cfg.Stream.LibraryID) == "" {
		return stage.Unhealthy("publisher", "stream library id not configured")
	}
	return stage.Healthy("publisher")
}

package scraper

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"reelingest/internal/config"
	"reelingest/internal/logging"
	"reelingest/internal/platform"
	"reelingest/internal/records"
	"reelingest/internal/services"
	"reelingest/internal/services/apify"
)

// ScrapedMedia is the resolver output: a directly fetchable media URL plus
// best-effort metadata. Only Platform and MediaURL are guaranteed.
type ScrapedMedia struct {
	Platform     platform.Platform
	MediaURL     string
	ThumbnailURL string
	Title        string
	Author       string
	Description  string
	Hashtags     []string
	Metrics      records.Metrics
}

// ActorRunner abstracts the scraping backend (implemented by apify.Client).
type ActorRunner interface {
	RunActor(ctx context.Context, actorID string, input map[string]any) ([]byte, error)
}

// Resolver exchanges a validated source URL for a fetchable media URL and
// metadata. It performs no writes.
type Resolver struct {
	cfg    *config.Config
	runner ActorRunner
	logger *slog.Logger
}

// NewResolver constructs a resolver backed by the configured actor API.
func NewResolver(cfg *config.Config, logger *slog.Logger) *Resolver {
	runner := apify.NewClient(apify.Config{
		APIToken:     cfg.Scraper.APIToken,
		BaseURL:      cfg.Scraper.BaseURL,
		PollInterval: time.Duration(cfg.Scraper.PollInterval) * time.Second,
	})
	return NewResolverWithRunner(cfg, runner, logger)
}

// NewResolverWithRunner allows injecting the backend (used in tests).
func NewResolverWithRunner(cfg *config.Config, runner ActorRunner, logger *slog.Logger) *Resolver {
	return &Resolver{
		cfg:    cfg,
		runner: runner,
		logger: logging.NewComponentLogger(logger, "scraper"),
	}
}

// Resolve turns a source URL into scraped media. It fails with ErrResolution
// when the backing API yields no playable media URL or the request times out.
func (r *Resolver) Resolve(ctx context.Context, sourceURL string) (ScrapedMedia, error) {
	det := platform.Detect(sourceURL)
	if !det.Supported {
		return ScrapedMedia{}, services.Wrap(services.ErrUnsupportedURL, "resolving", "detect platform", det.Reason, nil)
	}

	actorID, input := r.actorRequest(det.Platform, sourceURL)
	if actorID == "" {
		return ScrapedMedia{}, services.Wrap(services.ErrConfiguration, "resolving", "select actor",
			"no actor configured for platform "+string(det.Platform), nil)
	}

	timeout := time.Duration(r.cfg.Scraper.ResolveTimeout) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := r.runner.RunActor(runCtx, actorID, input)
	if err != nil {
		if runCtx.Err() != nil && ctx.Err() == nil {
			return ScrapedMedia{}, services.Wrap(services.ErrResolution, "resolving", "run actor",
				"scrape timed out after "+timeout.String(), err)
		}
		return ScrapedMedia{}, services.Wrap(services.ErrResolution, "resolving", "run actor", "", err)
	}

	media, err := extractMedia(raw, det.Platform)
	if err != nil {
		return ScrapedMedia{}, err
	}

	r.logger.Info("resolved source url",
		logging.String("platform", string(media.Platform)),
		logging.String("author", media.Author),
		logging.Int("hashtags", len(media.Hashtags)),
	)
	return media, nil
}

func (r *Resolver) actorRequest(p platform.Platform, sourceURL string) (string, map[string]any) {
	switch p {
	case platform.TikTok:
		return r.cfg.Scraper.TikTokActor, map[string]any{
			"postURLs":       []string{sourceURL},
			"resultsPerPage": 1,
		}
	case platform.Instagram:
		return r.cfg.Scraper.InstagramActor, map[string]any{
			"directUrls":   []string{sourceURL},
			"resultsType":  "posts",
			"resultsLimit": 1,
		}
	case platform.YouTube:
		return r.cfg.Scraper.YouTubeActor, map[string]any{
			"startUrls":  []map[string]string{{"url": sourceURL}},
			"maxResults": 1,
		}
	default:
		return "", nil
	}
}

func extractMedia(raw []byte, p platform.Platform) (ScrapedMedia, error) {
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return ScrapedMedia{}, services.Wrap(services.ErrResolution, "resolving", "decode dataset", "", err)
	}
	if len(items) == 0 {
		return ScrapedMedia{}, services.Wrap(services.ErrResolution, "resolving", "decode dataset",
			"scraper returned no results", nil)
	}
	item := items[0]

	mediaURL := firstStringField(item,
		"videoUrl", "video_url", "downloadUrl", "download_url", "videoPlayUrl", "mediaUrl",
	)
	if mediaURL == "" {
		mediaURL = mediaURLFromNested(item)
	}
	if mediaURL == "" {
		return ScrapedMedia{}, services.Wrap(services.ErrResolution, "resolving", "extract media url",
			"no playable media url in scraper response", nil)
	}

	media := ScrapedMedia{
		Platform:     p,
		MediaURL:     mediaURL,
		ThumbnailURL: firstStringField(item, "thumbnailUrl", "thumbnail_url", "coverUrl", "cover", "displayUrl"),
		Title:        normalizeTitle(firstStringField(item, "title", "text", "caption")),
		Author:       authorFromItem(item),
		Description:  firstStringField(item, "text", "caption", "description"),
		Hashtags:     hashtagsFromItem(item),
		Metrics: records.Metrics{
			Views:    firstNumberField(item, "playCount", "viewCount", "views", "videoViewCount"),
			Likes:    firstNumberField(item, "diggCount", "likesCount", "likes", "likeCount"),
			Comments: firstNumberField(item, "commentCount", "commentsCount", "comments"),
			Shares:   firstNumberField(item, "shareCount", "sharesCount", "shares"),
		},
	}
	return media, nil
}

// mediaURLFromNested handles scrapers that bury the playable URL inside a
// formats array or a videoMeta object.
func mediaURLFromNested(item map[string]any) string {
	if meta, ok := item["videoMeta"].(map[string]any); ok {
		if url := firstStringField(meta, "downloadAddr", "playAddr", "videoUrl"); url != "" {
			return url
		}
	}
	if formats, ok := item["formats"].([]any); ok && len(formats) > 0 {
		if format, ok := formats[len(formats)-1].(map[string]any); ok {
			if url, ok := format["url"].(string); ok && url != "" {
				return url
			}
		}
	}
	return ""
}

func authorFromItem(item map[string]any) string {
	if meta, ok := item["authorMeta"].(map[string]any); ok {
		if name := firstStringField(meta, "nickName", "name", "uniqueId"); name != "" {
			return name
		}
	}
	return firstStringField(item, "ownerUsername", "channelName", "author", "authorName")
}

func hashtagsFromItem(item map[string]any) []string {
	var tags []string
	seen := make(map[string]struct{})

	appendTag := func(tag string) {
		tag = strings.TrimSpace(strings.TrimPrefix(tag, "#"))
		if tag == "" {
			return
		}
		lower := strings.ToLower(tag)
		if _, ok := seen[lower]; ok {
			return
		}
		seen[lower] = struct{}{}
		tags = append(tags, lower)
	}

	if list, ok := item["hashtags"].([]any); ok {
		for _, entry := range list {
			switch v := entry.(type) {
			case string:
				appendTag(v)
			case map[string]any:
				if name, ok := v["name"].(string); ok {
					appendTag(name)
				}
			}
		}
	}
	// Fall back to inline #tags in the caption.
	if len(tags) == 0 {
		caption := firstStringField(item, "text", "caption", "description")
		for _, word := range strings.Fields(caption) {
			if strings.HasPrefix(word, "#") && len(word) > 1 {
				appendTag(strings.Trim(word, "#.,!?"))
			}
		}
	}
	return tags
}

func firstStringField(item map[string]any, fields ...string) string {
	for _, field := range fields {
		if value, ok := item[field].(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func firstNumberField(item map[string]any, fields ...string) int64 {
	for _, field := range fields {
		switch v := item[field].(type) {
		case float64:
			return int64(v)
		case int64:
			return v
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return n
			}
		}
	}
	return 0
}

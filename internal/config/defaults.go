package config

const (
	defaultStagingDir         = "~/.local/share/reelingest/staging"
	defaultLogDir             = "~/.local/share/reelingest/logs"
	defaultAPIBind            = "127.0.0.1:7512"
	defaultScraperBaseURL     = "https://api.apify.com/v2"
	defaultTikTokActor        = "clockworks~tiktok-scraper"
	defaultInstagramActor     = "apify~instagram-scraper"
	defaultYouTubeActor       = "streamers~youtube-scraper"
	defaultScraperPoll        = 3
	defaultResolveTimeout     = 180
	defaultStreamBaseURL      = "https://video.bunnycdn.com"
	defaultUploadMaxAttempts  = 3
	defaultUploadBaseTimeout  = 120
	defaultUploadTimeoutStep  = 60
	defaultThumbnailAttempts  = 2
	defaultMaxThumbnailMiB    = 50
	defaultGeminiBaseURL      = "https://generativelanguage.googleapis.com"
	defaultGeminiModel        = "gemini-2.0-flash"
	defaultGeminiPollInterval = 2
	defaultGeminiPollTimeout  = 300
	defaultDedupeTTLSeconds   = 600
	defaultNotifyTimeout      = 10
	defaultQueuePollInterval  = 2
	defaultErrorRetryInterval = 5
	defaultHeartbeatInterval  = 15
	defaultHeartbeatTimeout   = 120
	defaultWorkers            = 2
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Scraper: Scraper{
			BaseURL:        defaultScraperBaseURL,
			TikTokActor:    defaultTikTokActor,
			InstagramActor: defaultInstagramActor,
			YouTubeActor:   defaultYouTubeActor,
			PollInterval:   defaultScraperPoll,
			ResolveTimeout: defaultResolveTimeout,
		},
		Stream: Stream{
			BaseURL:             defaultStreamBaseURL,
			UploadMaxAttempts:   defaultUploadMaxAttempts,
			UploadBaseTimeout:   defaultUploadBaseTimeout,
			UploadTimeoutStep:   defaultUploadTimeoutStep,
			ThumbnailAttempts:   defaultThumbnailAttempts,
			MaxThumbnailSizeMiB: defaultMaxThumbnailMiB,
		},
		Gemini: Gemini{
			BaseURL:      defaultGeminiBaseURL,
			Model:        defaultGeminiModel,
			PollInterval: defaultGeminiPollInterval,
			PollTimeout:  defaultGeminiPollTimeout,
		},
		Dedupe: Dedupe{
			TTLSeconds: defaultDedupeTTLSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Completed:      true,
			Errors:         true,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
			Workers:            defaultWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

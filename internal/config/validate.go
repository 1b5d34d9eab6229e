package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScraper(); err != nil {
		return err
	}
	if err := c.validateStream(); err != nil {
		return err
	}
	if err := c.validateGemini(); err != nil {
		return err
	}
	if err := c.validateDedupe(); err != nil {
		return err
	}
	return c.validateWorkflow()
}

func (c *Config) validateScraper() error {
	if c.Scraper.APIToken == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/reelingest/config.toml"
		}
		return fmt.Errorf("scraper.api_token is required. Set APIFY_API_TOKEN or edit %s (create with 'reelingest config init')", defaultPath)
	}
	return ensurePositiveMap(map[string]int{
		"scraper.poll_interval":   c.Scraper.PollInterval,
		"scraper.resolve_timeout": c.Scraper.ResolveTimeout,
	})
}

func (c *Config) validateStream() error {
	if c.Stream.APIKey == "" {
		return errors.New("stream.api_key is required (or BUNNY_STREAM_API_KEY)")
	}
	if c.Stream.LibraryID == "" {
		return errors.New("stream.library_id is required (or BUNNY_STREAM_LIBRARY_ID)")
	}
	if c.Stream.CDNHostname == "" {
		return errors.New("stream.cdn_hostname is required (or BUNNY_CDN_HOSTNAME)")
	}
	if c.Stream.UploadMaxAttempts <= 0 {
		return errors.New("stream.upload_max_attempts must be positive")
	}
	if c.Stream.ThumbnailAttempts <= 0 {
		return errors.New("stream.thumbnail_attempts must be positive")
	}
	return ensurePositiveMap(map[string]int{
		"stream.upload_base_timeout": c.Stream.UploadBaseTimeout,
		"stream.upload_timeout_step": c.Stream.UploadTimeoutStep,
	})
}

func (c *Config) validateGemini() error {
	if c.Gemini.APIKey == "" {
		return errors.New("gemini.api_key is required (or GEMINI_API_KEY)")
	}
	if c.Gemini.Model == "" {
		return errors.New("gemini.model must be set")
	}
	if err := ensurePositiveMap(map[string]int{
		"gemini.poll_interval": c.Gemini.PollInterval,
		"gemini.poll_timeout":  c.Gemini.PollTimeout,
	}); err != nil {
		return err
	}
	if c.Gemini.PollTimeout <= c.Gemini.PollInterval {
		return errors.New("gemini.poll_timeout must be greater than gemini.poll_interval")
	}
	return nil
}

func (c *Config) validateDedupe() error {
	if !c.Dedupe.Enabled {
		return nil
	}
	if c.Dedupe.RedisAddr == "" {
		return errors.New("dedupe.redis_addr must be set when dedupe.enabled is true")
	}
	if c.Dedupe.TTLSeconds <= 0 {
		return errors.New("dedupe.ttl_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"workflow.workers":              c.Workflow.Workers,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

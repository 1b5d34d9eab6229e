package config

import (
	"os"
	"strings"
)

// normalize expands filesystem paths and resolves environment fallbacks for
// secrets that operators commonly inject instead of writing to disk.
func (c *Config) normalize() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Scraper.APIToken = fallbackEnv(c.Scraper.APIToken, "APIFY_API_TOKEN")
	c.Stream.APIKey = fallbackEnv(c.Stream.APIKey, "BUNNY_STREAM_API_KEY")
	c.Stream.LibraryID = fallbackEnv(c.Stream.LibraryID, "BUNNY_STREAM_LIBRARY_ID")
	c.Stream.CDNHostname = fallbackEnv(c.Stream.CDNHostname, "BUNNY_CDN_HOSTNAME")
	c.Gemini.APIKey = fallbackEnv(c.Gemini.APIKey, "GEMINI_API_KEY")

	c.Stream.CDNHostname = strings.TrimSpace(c.Stream.CDNHostname)
	c.Stream.LibraryID = strings.TrimSpace(c.Stream.LibraryID)
	c.Gemini.Model = strings.TrimSpace(c.Gemini.Model)
	return nil
}

func fallbackEnv(value, key string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(os.Getenv(key))
}

package preflight

import (
	"context"

	"reelingest/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckDiskSpace("Staging disk space", cfg.Paths.StagingDir))
	results = append(results, CheckAPIKey("Scraper API token", cfg.Scraper.APIToken))
	results = append(results, CheckAPIKey("Stream API key", cfg.Stream.APIKey))
	results = append(results, CheckAPIKey("Gemini API key", cfg.Gemini.APIKey))

	if cfg.Dedupe.Enabled {
		results = append(results, CheckRedis(ctx, cfg.Dedupe.RedisAddr))
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}

package main

import (
	"context"

	"log/slog"

	"reelingest/internal/config"
	"reelingest/internal/download"
	"reelingest/internal/logging"
	"reelingest/internal/pipeline"
	"reelingest/internal/preflight"
	"reelingest/internal/publish"
	"reelingest/internal/records"
	"reelingest/internal/transcribe"
)

func configureStages(manager *pipeline.Manager, cfg *config.Config, store *records.Store, logger *slog.Logger) {
	if manager == nil || cfg == nil {
		return
	}

	manager.ConfigureStages(pipeline.StageSet{
		Downloader:  download.NewDownloader(cfg, store, logger),
		Publisher:   publish.NewPublisher(cfg, store, logger),
		Transcriber: transcribe.NewTranscriber(cfg, store, logger),
	})
}

// reportPreflight logs environment problems at startup without blocking it.
// A daemon with a missing API key can still queue submissions; the affected
// stage reports unhealthy until the key arrives.
func reportPreflight(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	results := preflight.RunAll(ctx, cfg)
	for _, res := range results {
		if res.Passed {
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", res.Name),
			logging.String("detail", res.Detail),
		)
	}
	if preflight.AllPassed(results) {
		logger.Info("preflight checks passed")
	}
}

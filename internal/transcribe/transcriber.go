package transcribe

import (
	"context"
	"os"
	"strings"
	"time"

	"log/slog"

	"reelingest/internal/config"
	"reelingest/internal/logging"
	"reelingest/internal/records"
	"reelingest/internal/services/gemini"
	"reelingest/internal/stage"
)

// Engine runs media through the analysis model.
type Engine interface {
	Transcribe(ctx context.Context, payload []byte, platformHint string) (gemini.Analysis, error)
}

// Transcriber enriches published records with transcripts and script
// components. Enrichment failures never fail the job: the video is already
// live, so the record completes with transcription marked failed instead.
type Transcriber struct {
	cfg    *config.Config
	store  *records.Store
	logger *slog.Logger
	engine Engine
}

// NewTranscriber constructs the transcription handler using default dependencies.
func NewTranscriber(cfg *config.Config, store *records.Store, logger *slog.Logger) *Transcriber {
	client := gemini.NewClient(gemini.Config{
		APIKey:       cfg.Gemini.APIKey,
		BaseURL:      cfg.Gemini.BaseURL,
		Model:        cfg.Gemini.Model,
		PollInterval: time.Duration(cfg.Gemini.PollInterval) * time.Second,
		PollTimeout:  time.Duration(cfg.Gemini.PollTimeout) * time.Second,
		TempDir:      cfg.Paths.StagingDir,
	})
	return NewTranscriberWithDependencies(cfg, store, logger, gemini.NewEngine(client))
}

// NewTranscriberWithDependencies allows injecting the engine (used in tests).
func NewTranscriberWithDependencies(cfg *config.Config, store *records.Store, logger *slog.Logger, engine Engine) *Transcriber {
	return &Transcriber{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "transcriber"),
		engine: engine,
	}
}

func (t *Transcriber) Prepare(ctx context.Context, rec *records.Record) error {
	logger := logging.WithContext(ctx, t.logger)
	rec.TranscriptionStatus = records.TranscriptionProcessing
	rec.SetProgress("Transcribing", "Analyzing media", 0)
	logger.Info("starting transcription", logging.String("media_file", rec.MediaFile))
	return nil
}

func (t *Transcriber) Execute(ctx context.Context, rec *records.Record) error {
	logger := logging.WithContext(ctx, t.logger)

	// The staged media is consumed by this stage whatever the outcome.
	defer func() {
		if rec.MediaFile == "" {
			return
		}
		if err := os.Remove(rec.MediaFile); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove staged media", logging.Error(err))
			return
		}
		rec.MediaFile = ""
	}()

	payload, err := os.ReadFile(rec.MediaFile)
	if err != nil {
		logger.Warn("staged media unreadable, skipping enrichment", logging.Error(err))
		rec.TranscriptionStatus = records.TranscriptionFailed
		rec.SetProgress("Transcribing", "Enrichment skipped", 100)
		return nil
	}

	analysis, err := t.engine.Transcribe(ctx, payload, rec.Platform)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("transcription failed, completing without enrichment", logging.Error(err))
		rec.TranscriptionStatus = records.TranscriptionFailed
		rec.SetProgress("Transcribing", "Enrichment failed", 100)
		return nil
	}

	rec.Transcript = analysis.Transcript
	rec.SetComponents(analysis.Components)
	rec.VisualContext = analysis.VisualContext
	// Scraped metadata wins; the model only fills gaps.
	if rec.Author == "" {
		rec.Author = analysis.Metadata.Author
	}
	if rec.Description == "" {
		rec.Description = analysis.Metadata.Description
	}
	if len(rec.Hashtags()) == 0 {
		rec.SetHashtags(analysis.Metadata.Hashtags)
	}
	rec.TranscriptionStatus = records.TranscriptionCompleted
	rec.SetProgress("Transcribing", "Enrichment complete", 100)

	logger.Info("transcription complete",
		logging.Int("transcript_chars", len(analysis.Transcript)),
		logging.Bool("structured", analysis.Components != (records.Components{})),
	)
	return nil
}

func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(t.cfg.Gemini.APIKey) == "" {
		return stage.Unhealthy("transcriber", "gemini api key not configured")
	}
	return stage.Healthy("transcriber")
}

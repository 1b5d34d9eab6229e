package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"reelingest/internal/logging"
	"reelingest/internal/records"
)

// handleStageFailure marks the record failed, persists it, and cleans up the
// resources the job was holding. A record that failed after publishing keeps
// its CDN fields so the video stays reachable.
func (m *Manager) handleStageFailure(ctx context.Context, stg pipelineStage, rec *records.Record, stageErr error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(m.logger, "pipeline-manager"))

	message := classifyStageFailure(stg.name, stageErr)
	rec.SetFailed(message)

	logger.Error("stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String(logging.FieldStage, stg.name),
		logging.String("error_message", message),
		logging.Error(stageErr),
	)

	if err := m.store.Update(ctx, rec); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not persist stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.cleanupFailedRecord(ctx, logger, rec)

	if m.notifier != nil {
		if err := m.notifier.NotifyError(ctx, stageErr, stg.name); err != nil {
			logger.Warn("error notification failed", logging.Error(err))
		}
	}
}

// cleanupFailedRecord removes staged media and frees the dedupe reservation
// so the URL can be resubmitted once the operator has looked at the failure.
func (m *Manager) cleanupFailedRecord(ctx context.Context, logger *slog.Logger, rec *records.Record) {
	if rec.MediaFile != "" {
		if err := os.Remove(rec.MediaFile); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove staged media", logging.Error(err))
		}
	}
	if m.guard != nil {
		if err := m.guard.Release(ctx, rec.SourceURL); err != nil {
			logger.Warn("failed to release dedupe reservation", logging.Error(err))
		}
	}
}

func classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		return stageName + " failed without error detail"
	}
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		return stageName + " failed"
	}
	return message
}

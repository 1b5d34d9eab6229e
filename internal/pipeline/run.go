package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"reelingest/internal/logging"
	"reelingest/internal/records"
	"reelingest/internal/services"
)

// Start begins background processing with the configured worker count.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("pipeline already running")
	}
	if len(m.statusOrder) == 0 {
		m.mu.Unlock()
		return errors.New("pipeline stages not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	workers := m.workers()
	m.wg.Add(workers + 1)
	m.mu.Unlock()

	go m.runReclaimer(runCtx)
	for i := 0; i < workers; i++ {
		go m.runWorker(runCtx, i)
	}
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// runReclaimer periodically resets records whose worker stopped heartbeating,
// rolling them back to the stage's start status for another worker to claim.
func (m *Manager) runReclaimer(ctx context.Context) {
	defer m.wg.Done()
	logger := logging.NewComponentLogger(m.logger, "pipeline-reclaimer")

	interval := m.heartbeat.heartbeatTimeout
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.heartbeat.ReclaimStaleRecords(ctx, logger); err != nil {
				logger.Warn("reclaim stale records failed; stuck records may remain", logging.Error(err))
			}
		}
	}
}

func (m *Manager) runWorker(ctx context.Context, id int) {
	defer m.wg.Done()
	logger := logging.NewComponentLogger(m.logger, "pipeline-worker").With(logging.Int("worker", id))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rec, err := m.store.NextForStatuses(ctx, m.claimableStatuses()...)
		if err != nil {
			m.handleFetchError(ctx, logger, err)
			continue
		}
		if rec == nil {
			m.waitForRecordOrShutdown(ctx)
			continue
		}

		if err := m.processRecord(ctx, logger, rec); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (m *Manager) claimableStatuses() []records.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	statuses := make([]records.Status, len(m.statusOrder))
	copy(statuses, m.statusOrder)
	return statuses
}

func (m *Manager) stageForStatus(status records.Status) (pipelineStage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stg, ok := m.stages[status]
	return stg, ok
}

func (m *Manager) handleFetchError(ctx context.Context, logger *slog.Logger, err error) {
	m.setLastError(err)
	logger.Error("failed to fetch next record", logging.Error(err))
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second):
	}
}

func (m *Manager) waitForRecordOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}

func (m *Manager) processRecord(ctx context.Context, workerLogger *slog.Logger, rec *records.Record) error {
	stg, ok := m.stageForStatus(rec.Status)
	if !ok {
		workerLogger.Warn("no stage configured for status", logging.String("status", string(rec.Status)))
		m.waitForRecordOrShutdown(ctx)
		return nil
	}

	// Another worker may have grabbed the record between fetch and claim.
	claimed, err := m.store.Claim(ctx, rec.ID, stg.startStatus, stg.processingStatus)
	if err != nil {
		m.setLastError(err)
		workerLogger.Error("failed to claim record", logging.Error(err))
		return err
	}
	if !claimed {
		return nil
	}

	rec, err = m.store.GetByID(ctx, rec.ID)
	if err != nil {
		m.setLastError(err)
		return err
	}

	requestID := uuid.NewString()
	stageCtx := services.WithRecordID(services.WithStage(services.WithRequestID(ctx, requestID), stg.name), rec.ID)
	stageLogger := logging.WithContext(stageCtx, workerLogger).With(
		logging.String(logging.FieldStage, stg.name),
		logging.String(logging.FieldRecordID, rec.JobID),
		logging.String(logging.FieldCorrelationID, requestID),
	)

	return m.executeStage(stageCtx, stageLogger, stg, rec)
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, rec *records.Record) error {
	stageStart := time.Now()
	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("source_url", rec.SourceURL),
	)

	if err := stg.handler.Prepare(ctx, rec); err != nil {
		m.handleStageFailure(ctx, stg, rec, err)
		m.setLastError(err)
		return err
	}
	now := time.Now().UTC()
	rec.LastHeartbeat = &now
	if err := m.store.Update(ctx, rec); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		stageLogger.Error("failed to persist stage preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	execErr := m.executeWithHeartbeat(ctx, stg, rec)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.handleStageFailure(ctx, stg, rec, execErr)
		m.setLastError(execErr)
		return execErr
	}

	rec.Status = stg.doneStatus
	rec.LastHeartbeat = nil
	if err := m.store.Update(ctx, rec); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(rec.Status)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)

	m.notifyStageDone(ctx, stageLogger, stg, rec)
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, stg pipelineStage, rec *records.Record) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, rec.ID)

	execErr := stg.handler.Execute(ctx, rec)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) notifyStageDone(ctx context.Context, logger *slog.Logger, stg pipelineStage, rec *records.Record) {
	if m.notifier == nil {
		return
	}
	switch rec.Status {
	case records.StatusPublished:
		if err := m.notifier.NotifyVideoPublished(ctx, rec.Title, rec.PlaybackURL); err != nil {
			logger.Warn("publish notification failed", logging.Error(err))
		}
	case records.StatusCompleted:
		enriched := rec.TranscriptionStatus == records.TranscriptionCompleted
		if err := m.notifier.NotifyIngestCompleted(ctx, rec.Title, enriched); err != nil {
			logger.Warn("completion notification failed", logging.Error(err))
		}
	}
}

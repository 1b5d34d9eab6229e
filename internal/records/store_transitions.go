package records

import (
	"context"
	"fmt"
	"time"
)

// stage rollback pairs: a processing status maps back to the start of its stage.
var rollbackPairs = []struct {
	from Status
	to   Status
}{
	{from: StatusDownloading, to: StatusPending},
	{from: StatusPublishing, to: StatusDownloaded},
	{from: StatusTranscribing, to: StatusPublished},
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight record.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(
		ctx,
		`UPDATE video_records SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now, now, id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStaleProcessing returns records stuck in a processing status to the
// start of their current stage when heartbeats have expired.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE video_records
         SET status = CASE status
             WHEN ? THEN ?
             WHEN ? THEN ?
             WHEN ? THEN ?
             ELSE status
         END,
             progress_stage = 'Reclaimed from stale processing',
             progress_percent = 0, progress_message = NULL, last_heartbeat = NULL, updated_at = ?
         WHERE status IN (?, ?, ?) AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		rollbackPairs[0].from, rollbackPairs[0].to,
		rollbackPairs[1].from, rollbackPairs[1].to,
		rollbackPairs[2].from, rollbackPairs[2].to,
		now,
		rollbackPairs[0].from, rollbackPairs[1].from, rollbackPairs[2].from,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale records: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed records back to pending for reprocessing. With no
// ids, every failed record is retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if len(ids) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE video_records
             SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
                 progress_message = NULL, error_message = NULL, updated_at = ?
             WHERE status = ?`,
			StatusPending, now, StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed records: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+3)
	args = append(args, StatusPending, now)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, StatusFailed)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE video_records
         SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
             progress_message = NULL, error_message = NULL, updated_at = ?
         WHERE id IN (`+placeholders+`) AND status = ?`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("retry selected records: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes terminal records, keeping in-flight jobs untouched.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM video_records WHERE status IN (?, ?)`,
		StatusCompleted, StatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("clear records: %w", err)
	}
	return res.RowsAffected()
}

package pipeline

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"reelingest/internal/logging"
	"reelingest/internal/platform"
	"reelingest/internal/records"
	"reelingest/internal/services"
)

// SubmitRequest carries a new ingestion request.
type SubmitRequest struct {
	SourceURL    string
	Interest     string
	CollectionID string
}

// Submit validates a source URL, reserves it, and creates a pending record
// for the workers to pick up. The returned record carries the job ID the
// caller polls with; processing happens asynchronously.
func (m *Manager) Submit(ctx context.Context, req SubmitRequest) (*records.Record, error) {
	sourceURL := strings.TrimSpace(req.SourceURL)
	if sourceURL == "" {
		return nil, services.Wrap(services.ErrUnsupportedURL, "submitting", "validate url", "source url required", nil)
	}

	det := platform.Detect(sourceURL)
	if !det.Supported {
		return nil, services.Wrap(services.ErrUnsupportedURL, "submitting", "validate url", det.Reason, nil)
	}

	if active, err := m.store.FindActiveBySourceURL(ctx, sourceURL); err != nil {
		return nil, err
	} else if active != nil {
		return nil, services.Wrap(services.ErrDuplicate, "submitting", "check duplicates",
			"source url already being processed as job "+active.JobID, nil)
	}

	if m.guard != nil {
		claimed, err := m.guard.Claim(ctx, sourceURL)
		if err != nil {
			// The guard is an optimization over the store check; a broken
			// redis must not block ingestion.
			m.logger.Warn("dedupe guard unavailable, continuing", logging.Error(err))
		} else if !claimed {
			return nil, services.Wrap(services.ErrDuplicate, "submitting", "check duplicates",
				"source url was submitted recently", nil)
		}
	}

	rec, err := m.store.NewRecord(ctx, uuid.NewString(), sourceURL, string(det.Platform), req.Interest, req.CollectionID)
	if err != nil {
		if m.guard != nil {
			_ = m.guard.Release(ctx, sourceURL)
		}
		return nil, err
	}

	m.logger.Info("submission accepted",
		logging.String(logging.FieldRecordID, rec.JobID),
		logging.String("platform", rec.Platform),
		logging.String("source_url", rec.SourceURL),
	)
	return rec, nil
}

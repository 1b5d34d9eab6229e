package records

import (
	"database/sql"
	"errors"
	"time"
)

const recordColumns = "id, job_id, source_url, platform, interest, collection_id, " +
	"title, author, description, hashtags_json, metrics_json, thumbnail_source_url, " +
	"media_file, media_content_type, media_size, " +
	"remote_id, playback_url, direct_url, thumbnail_url, " +
	"transcript, components_json, visual_context, transcription_status, " +
	"status, error_message, progress_stage, progress_percent, progress_message, last_heartbeat, " +
	"created_at, updated_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id                  int64
		jobID               string
		sourceURL           string
		platformStr         string
		interest            sql.NullString
		collectionID        sql.NullString
		title               sql.NullString
		author              sql.NullString
		description         sql.NullString
		hashtags            sql.NullString
		metrics             sql.NullString
		thumbSource         sql.NullString
		mediaFile           sql.NullString
		mediaContentType    sql.NullString
		mediaSize           sql.NullInt64
		remoteID            sql.NullString
		playbackURL         sql.NullString
		directURL           sql.NullString
		thumbnailURL        sql.NullString
		transcript          sql.NullString
		components          sql.NullString
		visualContext       sql.NullString
		transcriptionStatus string
		statusStr           string
		errorMessage        sql.NullString
		progressStage       sql.NullString
		progressPercent     sql.NullFloat64
		progressMessage     sql.NullString
		lastHeartbeatRaw    sql.NullString
		createdRaw          sql.NullString
		updatedRaw          sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&jobID,
		&sourceURL,
		&platformStr,
		&interest,
		&collectionID,
		&title,
		&author,
		&description,
		&hashtags,
		&metrics,
		&thumbSource,
		&mediaFile,
		&mediaContentType,
		&mediaSize,
		&remoteID,
		&playbackURL,
		&directURL,
		&thumbnailURL,
		&transcript,
		&components,
		&visualContext,
		&transcriptionStatus,
		&statusStr,
		&errorMessage,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&lastHeartbeatRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	rec := &Record{
		ID:                  id,
		JobID:               jobID,
		SourceURL:           sourceURL,
		Platform:            platformStr,
		Interest:            interest.String,
		CollectionID:        collectionID.String,
		Title:               title.String,
		Author:              author.String,
		Description:         description.String,
		HashtagsJSON:        hashtags.String,
		MetricsJSON:         metrics.String,
		ThumbnailSourceURL:  thumbSource.String,
		MediaFile:           mediaFile.String,
		MediaContentType:    mediaContentType.String,
		MediaSize:           mediaSize.Int64,
		RemoteID:            remoteID.String,
		PlaybackURL:         playbackURL.String,
		DirectURL:           directURL.String,
		ThumbnailURL:        thumbnailURL.String,
		Transcript:          transcript.String,
		ComponentsJSON:      components.String,
		VisualContext:       visualContext.String,
		TranscriptionStatus: TranscriptionStatus(transcriptionStatus),
		Status:              Status(statusStr),
		ErrorMessage:        errorMessage.String,
		ProgressStage:       progressStage.String,
		ProgressPercent:     progressPercent.Float64,
		ProgressMessage:     progressMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		rec.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			rec.LastHeartbeat = &heartbeat
		}
	}
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

package records

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"reelingest/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; stale databases must be cleared.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages video record persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the record database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "records.db")
	return OpenPath(dbPath)
}

// OpenPath opens the record database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'reelingest queue clear' or delete the database)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// NewRecord inserts a pending ingestion record for a submitted source URL.
func (s *Store) NewRecord(ctx context.Context, jobID, sourceURL, platform, interest, collectionID string) (*Record, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO video_records (
            job_id, source_url, platform, interest, collection_id,
            status, transcription_status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		jobID,
		sourceURL,
		platform,
		nullableString(interest),
		nullableString(collectionID),
		StatusPending,
		TranscriptionPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a record by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM video_records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// GetByJobID fetches a record by its submission job identifier.
func (s *Store) GetByJobID(ctx context.Context, jobID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM video_records WHERE job_id = ?`, jobID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record by job id: %w", err)
	}
	return rec, nil
}

// FindActiveBySourceURL returns the first non-terminal record for a source URL.
func (s *Store) FindActiveBySourceURL(ctx context.Context, sourceURL string) (*Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+recordColumns+` FROM video_records
         WHERE source_url = ? AND status NOT IN (?, ?) ORDER BY id LIMIT 1`,
		sourceURL, StatusCompleted, StatusFailed,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by source url: %w", err)
	}
	return rec, nil
}

// Update persists changes to an existing record.
func (s *Store) Update(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	rec.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE video_records
         SET source_url = ?, platform = ?, interest = ?, collection_id = ?,
             title = ?, author = ?, description = ?, hashtags_json = ?, metrics_json = ?,
             thumbnail_source_url = ?, media_file = ?, media_content_type = ?, media_size = ?,
             remote_id = ?, playback_url = ?, direct_url = ?, thumbnail_url = ?,
             transcript = ?, components_json = ?, visual_context = ?, transcription_status = ?,
             status = ?, error_message = ?, progress_stage = ?, progress_percent = ?,
             progress_message = ?, last_heartbeat = ?, updated_at = ?
         WHERE id = ?`,
		rec.SourceURL,
		rec.Platform,
		nullableString(rec.Interest),
		nullableString(rec.CollectionID),
		nullableString(rec.Title),
		nullableString(rec.Author),
		nullableString(rec.Description),
		nullableString(rec.HashtagsJSON),
		nullableString(rec.MetricsJSON),
		nullableString(rec.ThumbnailSourceURL),
		nullableString(rec.MediaFile),
		nullableString(rec.MediaContentType),
		rec.MediaSize,
		nullableString(rec.RemoteID),
		nullableString(rec.PlaybackURL),
		nullableString(rec.DirectURL),
		nullableString(rec.ThumbnailURL),
		nullableString(rec.Transcript),
		nullableString(rec.ComponentsJSON),
		nullableString(rec.VisualContext),
		string(rec.TranscriptionStatus),
		rec.Status,
		nullableString(rec.ErrorMessage),
		nullableString(rec.ProgressStage),
		rec.ProgressPercent,
		nullableString(rec.ProgressMessage),
		nullableTime(rec.LastHeartbeat),
		rec.UpdatedAt.Format(time.RFC3339Nano),
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// NextForStatuses returns the oldest record whose status matches one of the
// provided values.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Record, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+recordColumns+` FROM video_records WHERE status IN (`+placeholders+`) ORDER BY created_at LIMIT 1`,
		args...,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next for statuses: %w", err)
	}
	return rec, nil
}

// Claim transitions a record from one status to another only if it is still in
// the expected state, so concurrent workers never pick up the same job.
func (s *Store) Claim(ctx context.Context, id int64, from, to Status) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE video_records SET status = ?, last_heartbeat = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, now, now, id, from,
	)
	if err != nil {
		return false, fmt.Errorf("claim record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim rows affected: %w", err)
	}
	return affected == 1, nil
}

// List returns records filtered by status set (or all records when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Record, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + recordColumns + ` FROM video_records`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var results []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// Published returns records that have a playable CDN video, newest first.
func (s *Store) Published(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM video_records
         WHERE playback_url IS NOT NULL AND playback_url != ''
         ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list published: %w", err)
	}
	defer rows.Close()

	var results []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// Health aggregates record counts per lifecycle state.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	var summary HealthSummary
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM video_records GROUP BY status`)
	if err != nil {
		return summary, fmt.Errorf("health query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return summary, fmt.Errorf("health scan: %w", err)
		}
		summary.Total += count
		switch Status(status) {
		case StatusPending:
			summary.Pending += count
		case StatusCompleted:
			summary.Completed += count
		case StatusFailed:
			summary.Failed += count
		default:
			if IsProcessingStatus(Status(status)) {
				summary.Processing += count
			}
		}
	}
	return summary, rows.Err()
}

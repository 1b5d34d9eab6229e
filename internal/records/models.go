package records

import (
	"encoding/json"
	"strings"
	"time"
)

// Status represents the lifecycle of an ingestion record.
type Status string

const (
	StatusPending      Status = "pending"
	StatusDownloading  Status = "downloading"
	StatusDownloaded   Status = "downloaded"
	StatusPublishing   Status = "publishing"
	StatusPublished    Status = "published"
	StatusTranscribing Status = "transcribing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// TranscriptionStatus tracks the enrichment lifecycle independently of the job
// status, because a job can finish with enrichment failed but the video still
// playable.
type TranscriptionStatus string

const (
	TranscriptionPending    TranscriptionStatus = "pending"
	TranscriptionProcessing TranscriptionStatus = "processing"
	TranscriptionCompleted  TranscriptionStatus = "completed"
	TranscriptionFailed     TranscriptionStatus = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusDownloaded,
	StatusPublishing,
	StatusPublished,
	StatusTranscribing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusDownloading:  {},
	StatusPublishing:   {},
	StatusTranscribing: {},
}

// Metrics carries the engagement counters scraped from the source platform.
// All counters are best-effort and default to zero.
type Metrics struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
}

// Components is the four-part script structure extracted from a transcript.
// Absent data is represented by empty strings, never omitted fields.
type Components struct {
	Hook         string `json:"hook"`
	Bridge       string `json:"bridge"`
	Nugget       string `json:"nugget"`
	CallToAction string `json:"callToAction"`
}

// Record is an ingestion job and its persisted video document. Rows are
// created at submission; CDN fields fill in as stages complete, so a reader
// sees a playable video before transcription finishes.
type Record struct {
	ID           int64
	JobID        string
	SourceURL    string
	Platform     string
	Interest     string
	CollectionID string

	Title              string
	Author             string
	Description        string
	HashtagsJSON       string
	MetricsJSON        string
	ThumbnailSourceURL string

	MediaFile        string
	MediaContentType string
	MediaSize        int64

	RemoteID     string
	PlaybackURL  string
	DirectURL    string
	ThumbnailURL string

	Transcript          string
	ComponentsJSON      string
	VisualContext       string
	TranscriptionStatus TranscriptionStatus

	Status          Status
	ErrorMessage    string
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	LastHeartbeat   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight stage.
func (r Record) IsProcessing() bool {
	_, ok := processingStatuses[r.Status]
	return ok
}

// IsTerminal reports whether the record has reached a final state.
func (r Record) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// Metrics decodes the stored engagement counters. Missing or invalid JSON
// yields zero counters.
func (r Record) Metrics() Metrics {
	var m Metrics
	if strings.TrimSpace(r.MetricsJSON) == "" {
		return m
	}
	_ = json.Unmarshal([]byte(r.MetricsJSON), &m)
	return m
}

// SetMetrics stores engagement counters on the record.
func (r *Record) SetMetrics(m Metrics) {
	encoded, err := json.Marshal(m)
	if err != nil {
		return
	}
	r.MetricsJSON = string(encoded)
}

// Hashtags decodes the stored hashtag list.
func (r Record) Hashtags() []string {
	if strings.TrimSpace(r.HashtagsJSON) == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(r.HashtagsJSON), &tags); err != nil {
		return nil
	}
	return tags
}

// SetHashtags stores the hashtag list on the record.
func (r *Record) SetHashtags(tags []string) {
	if len(tags) == 0 {
		r.HashtagsJSON = ""
		return
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return
	}
	r.HashtagsJSON = string(encoded)
}

// Components decodes the stored script components. Missing or invalid JSON
// yields empty strings so consumers need no nil checks.
func (r Record) Components() Components {
	var c Components
	if strings.TrimSpace(r.ComponentsJSON) == "" {
		return c
	}
	_ = json.Unmarshal([]byte(r.ComponentsJSON), &c)
	return c
}

// SetComponents stores the script components on the record.
func (r *Record) SetComponents(c Components) {
	encoded, err := json.Marshal(c)
	if err != nil {
		return
	}
	r.ComponentsJSON = string(encoded)
}

// SetProgress updates all three progress fields together.
func (r *Record) SetProgress(stage, message string, percent float64) {
	r.ProgressStage = stage
	r.ProgressMessage = message
	r.ProgressPercent = percent
}

// SetFailed marks the record as failed with the given error message. The CDN
// URL fields are left untouched so a published video stays playable.
func (r *Record) SetFailed(message string) {
	r.Status = StatusFailed
	r.ErrorMessage = message
	r.ProgressPercent = 0
	r.ProgressMessage = message
	r.ProgressStage = "Failed"
	r.LastHeartbeat = nil
}

// IsPublished reports whether the CDN publish stage has produced a playable
// video for this record.
func (r Record) IsPublished() bool {
	return strings.TrimSpace(r.RemoteID) != "" && strings.TrimSpace(r.PlaybackURL) != ""
}

// HealthSummary describes aggregated record counts per key lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}

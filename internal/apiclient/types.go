package apiclient

import "time"

// SubmitRequest is the ingestion submission payload.
type SubmitRequest struct {
	SourceURL    string `json:"sourceUrl"`
	Interest     string `json:"interest,omitempty"`
	CollectionID string `json:"collectionId,omitempty"`
}

// SubmitResponse acknowledges an accepted submission.
type SubmitResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

// Metrics holds engagement counts scraped from the source platform.
type Metrics struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
}

// Components holds the structural breakdown produced by analysis.
type Components struct {
	Hook         string `json:"hook"`
	Bridge       string `json:"bridge"`
	Nugget       string `json:"nugget"`
	CallToAction string `json:"callToAction"`
}

// Job mirrors the daemon's job view.
type Job struct {
	JobID           string     `json:"jobId"`
	SourceURL       string     `json:"sourceUrl"`
	Platform        string     `json:"platform"`
	Status          string     `json:"status"`
	Interest        string     `json:"interest"`
	CollectionID    string     `json:"collectionId"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	Description     string     `json:"description"`
	Hashtags        []string   `json:"hashtags"`
	Metrics         Metrics    `json:"metrics"`
	PlaybackURL     string     `json:"playbackUrl"`
	DirectURL       string     `json:"directUrl"`
	ThumbnailURL    string     `json:"thumbnailUrl"`
	Transcript      string     `json:"transcript"`
	Components      Components `json:"components"`
	VisualContext   string     `json:"visualContext"`
	Transcription   string     `json:"transcriptionStatus"`
	ProgressStage   string     `json:"progressStage"`
	ProgressMessage string     `json:"progressMessage"`
	Error           string     `json:"error"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// StageHealth describes readiness of one pipeline stage.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail"`
}

// QueueStats aggregates record counts per lifecycle state.
type QueueStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// Status represents combined daemon and queue status information.
type Status struct {
	Running bool          `json:"running"`
	Stages  []StageHealth `json:"stages"`
	Queue   QueueStats    `json:"queue"`
}

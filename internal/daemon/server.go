package daemon

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"reelingest/internal/logging"
	"reelingest/internal/pipeline"
	"reelingest/internal/records"
	"reelingest/internal/services"
)

type ingestRequest struct {
	SourceURL    string `json:"sourceUrl"`
	Interest     string `json:"interest,omitempty"`
	CollectionID string `json:"collectionId,omitempty"`
}

type ingestResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

type jobResponse struct {
	JobID           string             `json:"jobId"`
	SourceURL       string             `json:"sourceUrl"`
	Platform        string             `json:"platform"`
	Status          string             `json:"status"`
	Interest        string             `json:"interest,omitempty"`
	CollectionID    string             `json:"collectionId,omitempty"`
	Title           string             `json:"title,omitempty"`
	Author          string             `json:"author,omitempty"`
	Description     string             `json:"description,omitempty"`
	Hashtags        []string           `json:"hashtags,omitempty"`
	Metrics         records.Metrics    `json:"metrics"`
	PlaybackURL     string             `json:"playbackUrl,omitempty"`
	DirectURL       string             `json:"directUrl,omitempty"`
	ThumbnailURL    string             `json:"thumbnailUrl,omitempty"`
	Transcript      string             `json:"transcript,omitempty"`
	Components      records.Components `json:"components"`
	VisualContext   string             `json:"visualContext,omitempty"`
	Transcription   string             `json:"transcriptionStatus"`
	ProgressStage   string             `json:"progressStage,omitempty"`
	ProgressMessage string             `json:"progressMessage,omitempty"`
	Error           string             `json:"error,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

type stageHealthResponse struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

type statusResponse struct {
	Running bool                  `json:"running"`
	Stages  []stageHealthResponse `json:"stages"`
	Queue   queueHealthResponse   `json:"queue"`
}

type queueHealthResponse struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (d *Daemon) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Post("/ingest", d.handleIngest)
		r.Get("/jobs/{id}", d.handleGetJob)
		r.Get("/records", d.handleListRecords)
		r.Get("/status", d.handleStatus)
	})
	return r
}

func (d *Daemon) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := d.pipeline.Submit(r.Context(), pipeline.SubmitRequest{
		SourceURL:    req.SourceURL,
		Interest:     req.Interest,
		CollectionID: req.CollectionID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnsupportedURL):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrDuplicate):
			writeError(w, http.StatusConflict, err.Error())
		default:
			d.logger.Error("ingest submission failed", logging.Error(err))
			writeError(w, http.StatusInternalServerError, "submission failed")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, ingestResponse{
		JobID:  rec.JobID,
		Status: "processing",
	})
}

func (d *Daemon) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	rec, err := d.store.GetByJobID(r.Context(), jobID)
	if err != nil {
		d.logger.Error("job lookup failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, jobView(rec))
}

func (d *Daemon) handleListRecords(w http.ResponseWriter, r *http.Request) {
	recs, err := d.store.Published(r.Context())
	if err != nil {
		d.logger.Error("record listing failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	views := make([]jobResponse, 0, len(recs))
	for _, rec := range recs {
		views = append(views, jobView(rec))
	}
	writeJSON(w, http.StatusOK, views)
}

func (d *Daemon) handleStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := d.store.Health(r.Context())
	if err != nil {
		d.logger.Error("queue health failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "status unavailable")
		return
	}

	stages := d.pipeline.Health(r.Context())
	resp := statusResponse{
		Running: d.running.Load(),
		Stages:  make([]stageHealthResponse, 0, len(stages)),
		Queue: queueHealthResponse{
			Total:      summary.Total,
			Pending:    summary.Pending,
			Processing: summary.Processing,
			Completed:  summary.Completed,
			Failed:     summary.Failed,
		},
	}
	for _, h := range stages {
		resp.Stages = append(resp.Stages, stageHealthResponse{
			Name:   h.Name,
			Ready:  h.Ready,
			Detail: h.Detail,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func jobView(rec *records.Record) jobResponse {
	return jobResponse{
		JobID:           rec.JobID,
		SourceURL:       rec.SourceURL,
		Platform:        rec.Platform,
		Status:          string(rec.Status),
		Interest:        rec.Interest,
		CollectionID:    rec.CollectionID,
		Title:           rec.Title,
		Author:          rec.Author,
		Description:     rec.Description,
		Hashtags:        rec.Hashtags(),
		Metrics:         rec.Metrics(),
		PlaybackURL:     rec.PlaybackURL,
		DirectURL:       rec.DirectURL,
		ThumbnailURL:    rec.ThumbnailURL,
		Transcript:      rec.Transcript,
		Components:      rec.Components(),
		VisualContext:   rec.VisualContext,
		Transcription:   string(rec.TranscriptionStatus),
		ProgressStage:   rec.ProgressStage,
		ProgressMessage: rec.ProgressMessage,
		Error:           rec.ErrorMessage,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"reelingest/internal/config"
	"reelingest/internal/dedupe"
	"reelingest/internal/notifications"
	"reelingest/internal/records"
	"reelingest/internal/stage"
)

// Manager coordinates record processing using registered stage handlers.
// Multiple workers pull claimable records concurrently; a claim is an atomic
// status transition, so two workers can never run the same record.
type Manager struct {
	cfg      *config.Config
	store    *records.Store
	logger   *slog.Logger
	notifier notifications.Service
	guard    dedupe.Guard

	pollInterval time.Duration
	heartbeat    *HeartbeatMonitor

	stages      map[records.Status]pipelineStage
	statusOrder []records.Status

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// StageSet bundles the concrete stage handlers the manager orchestrates.
type StageSet struct {
	Downloader  stage.Handler
	Publisher   stage.Handler
	Transcriber stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      records.Status
	processingStatus records.Status
	doneStatus       records.Status
}

// NewManager constructs a pipeline manager with default collaborators.
func NewManager(cfg *config.Config, store *records.Store, logger *slog.Logger) *Manager {
	return NewManagerWithDependencies(cfg, store, logger, notifications.NewService(cfg), dedupe.NewGuard(cfg))
}

// NewManagerWithDependencies allows injecting all collaborators (used in tests).
func NewManagerWithDependencies(cfg *config.Config, store *records.Store, logger *slog.Logger, notifier notifications.Service, guard dedupe.Guard) *Manager {
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		notifier:     notifier,
		guard:        guard,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		stages: make(map[records.Status]pipelineStage),
	}
}

// ConfigureStages registers the concrete stage handlers the pipeline will run.
func (m *Manager) ConfigureStages(set StageSet) {
	stages := make(map[records.Status]pipelineStage)
	order := make([]records.Status, 0, 3)

	register := func(s pipelineStage) {
		if s.handler == nil {
			return
		}
		stages[s.startStatus] = s
		order = append(order, s.startStatus)
	}

	register(pipelineStage{
		name:             "downloader",
		handler:          set.Downloader,
		startStatus:      records.StatusPending,
		processingStatus: records.StatusDownloading,
		doneStatus:       records.StatusDownloaded,
	})
	register(pipelineStage{
		name:             "publisher",
		handler:          set.Publisher,
		startStatus:      records.StatusDownloaded,
		processingStatus: records.StatusPublishing,
		doneStatus:       records.StatusPublished,
	})
	register(pipelineStage{
		name:             "transcriber",
		handler:          set.Transcriber,
		startStatus:      records.StatusPublished,
		processingStatus: records.StatusTranscribing,
		doneStatus:       records.StatusCompleted,
	})

	m.mu.Lock()
	m.stages = stages
	m.statusOrder = order
	m.mu.Unlock()
}

// Health reports the readiness of every configured stage.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	m.mu.RLock()
	order := m.statusOrder
	stages := m.stages
	m.mu.RUnlock()

	results := make([]stage.Health, 0, len(order))
	for _, status := range order {
		results = append(results, stages[status].handler.HealthCheck(ctx))
	}
	return results
}

// LastError returns the most recent stage or store error, if any.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) workers() int {
	if m.cfg.Workflow.Workers > 0 {
		return m.cfg.Workflow.Workers
	}
	return 1
}

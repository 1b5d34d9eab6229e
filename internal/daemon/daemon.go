package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"reelingest/internal/config"
	"reelingest/internal/logging"
	"reelingest/internal/pipeline"
	"reelingest/internal/records"
)

// Daemon coordinates the pipeline manager and the HTTP API, and enforces
// single-instance execution through a lock file.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *records.Store
	pipeline *pipeline.Manager

	lockPath string
	lock     *flock.Flock

	server   *http.Server
	bindAddr atomic.Value

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *records.Store, logger *slog.Logger, mgr *pipeline.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || mgr == nil {
		return nil, errors.New("daemon requires config, store, logger, and pipeline manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "reelingestd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		pipeline: mgr,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.server = &http.Server{
		Handler:           d.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return d, nil
}

// Start acquires the daemon lock, launches the pipeline, and begins serving
// the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelingest daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.pipeline.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start pipeline: %w", err)
	}

	listener, err := net.Listen("tcp", d.cfg.Paths.APIBind)
	if err != nil {
		d.pipeline.Stop()
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("bind api address: %w", err)
	}
	d.bindAddr.Store(listener.Addr().String())

	go func() {
		if err := d.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("api server stopped", logging.Error(err))
		}
	}()

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api_bind", listener.Addr().String()),
	)
	return nil
}

// Addr returns the bound API address once Start has succeeded.
func (d *Daemon) Addr() string {
	if addr, ok := d.bindAddr.Load().(string); ok {
		return addr
	}
	return ""
}

// Stop shuts down the API server, stops the pipeline, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		d.logger.Warn("api server shutdown incomplete", logging.Error(err))
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.pipeline.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

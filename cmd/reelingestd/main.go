package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"reelingest/internal/config"
	"reelingest/internal/daemon"
	"reelingest/internal/logging"
	"reelingest/internal/pipeline"
	"reelingest/internal/records"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_ = godotenv.Load()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := records.Open(cfg)
	if err != nil {
		logger.Error("open record store", logging.Error(err))
		os.Exit(1)
	}

	manager := pipeline.NewManager(cfg, store, logger)
	configureStages(manager, cfg, store, logger)

	reportPreflight(ctx, cfg, logger)

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		store.Close()
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("reelingestd shutting down")
	d.Stop()
}

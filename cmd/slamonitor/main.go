package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"repairdesk/internal/config"
	"repairdesk/internal/logging"
	"repairdesk/internal/notify"
	"repairdesk/internal/repo/postgres"
	"repairdesk/internal/usecase"
	"repairdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	store, err := postgres.NewStore(cfg)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	defer store.Close()

	publisher, closePublisher, err := notify.FromConfig(cfg, logger)
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}
	defer closePublisher()

	monitor := usecase.NewSLAMonitor(store, publisher, logger)
	monitor.WarnFraction = cfg.SLAWarnFraction

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loop := worker.NewMonitorLoop(monitor, cfg.SLAScanInterval, logger)
	loop.Start(ctx)

	<-ctx.Done()
	loop.Wait()
	logger.Info("sla monitor stopped")
}

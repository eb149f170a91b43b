package main

import (
	"log"

	"repairdesk/internal/config"
	httpapi "repairdesk/internal/http"
	"repairdesk/internal/logging"
	"repairdesk/internal/notify"
	"repairdesk/internal/repo/postgres"
	"repairdesk/internal/usecase"
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

	workflowSvc := usecase.NewWorkflowService(store)
	caseSvc := usecase.NewCaseService(store, workflowSvc)
	monitor := usecase.NewSLAMonitor(store, publisher, logger)
	monitor.WarnFraction = cfg.SLAWarnFraction

	srv := httpapi.NewServer(cfg, httpapi.ServerDeps{
		Cases:    caseSvc,
		Workflow: workflowSvc,
		Monitor:  monitor,
		Logger:   logger,
	})
	if err := srv.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

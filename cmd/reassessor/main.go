package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/ibaizabal/floodwatch/internal/adapters/gemini"
	natsadapter "github.com/ibaizabal/floodwatch/internal/adapters/nats"
	"github.com/ibaizabal/floodwatch/internal/adapters/postgres"
	"github.com/ibaizabal/floodwatch/internal/core/ports"
	"github.com/ibaizabal/floodwatch/internal/core/usecases"
	"github.com/ibaizabal/floodwatch/internal/pkg/config"
	"github.com/ibaizabal/floodwatch/internal/pkg/logging"
	"github.com/ibaizabal/floodwatch/internal/workflows"
)

// The reassessor runs the periodic watchpoint sweep: a Temporal worker plus a
// cron-scheduled workflow that re-analyzes every registered watchpoint.
func main() {
	cfg, err := config.Load("floodwatch-reassessor")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Gemini.APIKey == "" {
		log.Fatal("FLOODWATCH_GEMINI_API_KEY is required")
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	model := gemini.New(cfg.Gemini.APIKey, cfg.Gemini.Model,
		gemini.WithBaseURL(cfg.Gemini.BaseURL),
		gemini.WithTimeout(time.Duration(cfg.Gemini.TimeoutSeconds)*time.Second),
	)

	// Re-assessments publish like any other completed assessment, so the
	// archiver and WebSocket clients see them too.
	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, events disabled", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	assessSvc := usecases.NewAssessmentService(model, nil, publisher, cfg.Gemini.MaxImageBytes)
	watchpointSvc := usecases.NewWatchpointService(postgres.NewWatchpointRepo(db), assessSvc)

	// Temporal
	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ReassessWorkflow)
	w.RegisterActivity(&workflows.ReassessActivities{
		Watchpoints: watchpointSvc,
	})

	// Cron-schedule the sweep. Starting an already-running cron workflow
	// returns AlreadyStarted, which is fine on restart.
	_, err = c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:           "watchpoint-reassess-cron",
		TaskQueue:    cfg.Temporal.TaskQueue,
		CronSchedule: cfg.Temporal.ReassessCron,
	}, workflows.ReassessWorkflow)
	if err != nil {
		slog.Warn("schedule reassess workflow", "error", err)
	}

	slog.Info("reassessor worker started", "task_queue", cfg.Temporal.TaskQueue, "cron", cfg.Temporal.ReassessCron)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

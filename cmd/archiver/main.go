package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	natsadapter "github.com/ibaizabal/floodwatch/internal/adapters/nats"
	"github.com/ibaizabal/floodwatch/internal/adapters/postgres"
	"github.com/ibaizabal/floodwatch/internal/core/domain"
	"github.com/ibaizabal/floodwatch/internal/pkg/config"
	"github.com/ibaizabal/floodwatch/internal/pkg/logging"
	"github.com/ibaizabal/floodwatch/internal/pkg/metrics"
)

// The archiver consumes completed assessments off JetStream and persists them
// to Postgres. Inserts are idempotent, so redeliveries are harmless.
func main() {
	cfg, err := config.Load("floodwatch-archiver")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewAssessmentRepo(db)

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeAssessments(ctx, func(ctx context.Context, a *domain.Assessment) error {
		if err := repo.Insert(ctx, a); err != nil {
			slog.Error("archive insert failed", "id", a.ID, "error", err)
			return err
		}
		metrics.AssessmentsArchived.Inc()
		slog.Info("assessment archived", "id", a.ID, "source", a.Source, "risk_level", a.RiskLevel)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("archiver started", "nats", cfg.NATS.URL)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("archiver stopping")
}

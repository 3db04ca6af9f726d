package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ibaizabal/floodwatch/internal/adapters/gemini"
	"github.com/ibaizabal/floodwatch/internal/adapters/http"
	natsadapter "github.com/ibaizabal/floodwatch/internal/adapters/nats"
	"github.com/ibaizabal/floodwatch/internal/adapters/postgres"
	"github.com/ibaizabal/floodwatch/internal/adapters/valkey"
	"github.com/ibaizabal/floodwatch/internal/core/ports"
	"github.com/ibaizabal/floodwatch/internal/core/usecases"
	"github.com/ibaizabal/floodwatch/internal/pkg/config"
	"github.com/ibaizabal/floodwatch/internal/pkg/logging"
	"github.com/ibaizabal/floodwatch/internal/pkg/metrics"
	"github.com/ibaizabal/floodwatch/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("floodwatch-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Gemini.APIKey == "" {
		log.Fatal("FLOODWATCH_GEMINI_API_KEY is required")
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Upstream model
	model := gemini.New(cfg.Gemini.APIKey, cfg.Gemini.Model,
		gemini.WithBaseURL(cfg.Gemini.BaseURL),
		gemini.WithTimeout(time.Duration(cfg.Gemini.TimeoutSeconds)*time.Second),
	)

	// Database (archive reads). The API degrades to analysis-only when the
	// archive is down; the archiver owns the writes.
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		slog.Warn("database unavailable, archive endpoints disabled", "error", err)
		db = nil
	} else {
		defer db.Close()
	}

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, running uncached", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// NATS
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, events disabled", "error", err)
		publisher = nil
	} else {
		defer publisher.Close()
	}

	// Raw NATS connection for the WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Use cases
	assessSvc := usecases.NewAssessmentService(model, nilIfCacheDown(cache), nilIfPublisherDown(publisher), cfg.Gemini.MaxImageBytes)

	deps := &http.Dependencies{
		Assessments: assessSvc,
		NATS:        natsConn,
		DB:          db,
		Cache:       cache,
	}
	if db != nil {
		deps.History = usecases.NewHistoryService(postgres.NewAssessmentRepo(db))
		deps.Watchpoints = usecases.NewWatchpointService(postgres.NewWatchpointRepo(db), assessSvc)
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    12 * 1024 * 1024, // 10 MiB image + multipart overhead
		AppName:      "FloodWatch API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Pool gauge refresh
	if db != nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					metrics.UpdateDBPoolMetrics(db.Pool.Stat())
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "model", cfg.Gemini.Model)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight analysis calls up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// A nil *valkey.Cache stuffed into the interface would not compare equal to
// nil inside the service; convert explicitly.
func nilIfCacheDown(c *valkey.Cache) ports.CacheService {
	if c == nil {
		return nil
	}
	return c
}

func nilIfPublisherDown(p *natsadapter.Publisher) ports.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

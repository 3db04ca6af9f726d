package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/ibaizabal/floodwatch/internal/pkg/metrics"
)

// Analysis calls are upstream-bound; everything else is local.
const (
	analyzeTimeout = 90 * time.Second
	readTimeout    = 15 * time.Second
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 60 requests per minute per IP. Every analysis request
	// costs an upstream model call, so this is tighter than a read-only API.
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// The unversioned analysis paths predate /v1 and are kept for existing
	// clients; headers steer them toward the successors.
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{Path: "/api/analyze/coordinates", SunsetDate: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), Alternative: "/v1/assess/coordinates"},
		{Path: "/api/analyze/image", SunsetDate: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), Alternative: "/v1/assess/image"},
	}))

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/health", HealthHandler(deps))
	app.Get("/ready", ReadyHandler(deps))

	// Analysis endpoints — original paths plus versioned successors
	app.Post("/api/analyze/coordinates", timeout.NewWithContext(AnalyzeCoordinatesHandler(deps), analyzeTimeout))
	app.Post("/api/analyze/image", timeout.NewWithContext(AnalyzeImageHandler(deps), analyzeTimeout))

	v1 := app.Group("/v1")
	v1.Post("/assess/coordinates", timeout.NewWithContext(AnalyzeCoordinatesHandler(deps), analyzeTimeout))
	v1.Post("/assess/image", timeout.NewWithContext(AnalyzeImageHandler(deps), analyzeTimeout))

	// Archive
	v1.Get("/assessments/recent", timeout.NewWithContext(RecentAssessmentsHandler(deps), readTimeout))
	v1.Get("/assessments/:id", timeout.NewWithContext(GetAssessmentHandler(deps), readTimeout))

	// Watchpoints
	v1.Post("/watchpoints", timeout.NewWithContext(CreateWatchpointHandler(deps), readTimeout))
	v1.Get("/watchpoints", timeout.NewWithContext(ListWatchpointsHandler(deps), readTimeout))
	v1.Delete("/watchpoints/:id", timeout.NewWithContext(DeleteWatchpointHandler(deps), readTimeout))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket live feed
	if deps.NATS != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}
}

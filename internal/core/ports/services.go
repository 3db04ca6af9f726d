package ports

import (
	"context"
)

// ModelClient talks to the upstream generative model.
// Implementations must be safe for concurrent use.
type ModelClient interface {
	// GenerateText sends a text-only prompt and returns the raw model output.
	GenerateText(ctx context.Context, prompt string) (string, error)
	// GenerateFromImage sends a prompt plus an inline image and returns the
	// raw model output. mimeType must be image/jpeg or image/png.
	GenerateFromImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
	// ModelName returns the configured model identifier (for result metadata).
	ModelName() string
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishAssessment(ctx context.Context, data []byte, source string) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

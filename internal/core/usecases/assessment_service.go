package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ibaizabal/floodwatch/internal/core/domain"
	"github.com/ibaizabal/floodwatch/internal/core/ports"
	"github.com/ibaizabal/floodwatch/internal/pkg/metrics"
)

var (
	// ErrInvalidInput marks client-side validation failures (4xx).
	ErrInvalidInput = errors.New("invalid input")
	// ErrImageTooLarge marks uploads over the configured byte limit (413).
	ErrImageTooLarge = errors.New("image too large")
	// ErrUpstream marks failures of the upstream model call (5xx).
	ErrUpstream = errors.New("upstream model failure")
)

// DefaultMaxImageBytes caps image uploads at 10 MiB.
const DefaultMaxImageBytes = 10 << 20

const coordCacheTTLSeconds = 3600

// AssessmentService runs flood-risk analyses through the upstream model,
// normalizes the output, and publishes completed assessments.
type AssessmentService struct {
	model         ports.ModelClient
	cache         ports.CacheService
	publisher     ports.EventPublisher
	maxImageBytes int
}

// NewAssessmentService creates a new AssessmentService. cache and publisher
// may be nil; the service degrades to uncached, unpublished operation.
func NewAssessmentService(model ports.ModelClient, cache ports.CacheService, publisher ports.EventPublisher, maxImageBytes int) *AssessmentService {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &AssessmentService{model: model, cache: cache, publisher: publisher, maxImageBytes: maxImageBytes}
}

// AssessCoordinates analyzes flood risk for a coordinate pair.
func (s *AssessmentService) AssessCoordinates(ctx context.Context, point domain.GeoPoint) (*domain.Assessment, error) {
	if err := point.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// ~11m quantization: nearby requests share a cache entry.
	cacheKey := fmt.Sprintf("assess:coords:%.4f:%.4f", point.Lat, point.Lon)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var a domain.Assessment
			if err := json.Unmarshal(data, &a); err == nil {
				metrics.CacheHits.WithLabelValues("coordinates").Inc()
				return &a, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("coordinates").Inc()
	}

	a, err := s.generate(ctx, coordinatePrompt(point.Lat, point.Lon), nil, "", domain.SourceCoordinates)
	if err != nil {
		return nil, err
	}
	a.Location = &point

	if s.cache != nil {
		if data, err := json.Marshal(a); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, coordCacheTTLSeconds)
		}
	}

	s.publish(ctx, a)
	return a, nil
}

// AssessImage analyzes flood risk from a terrain photo. The MIME type is
// sniffed from the payload, not trusted from the upload headers.
func (s *AssessmentService) AssessImage(ctx context.Context, image []byte) (*domain.Assessment, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidInput)
	}
	if len(image) > s.maxImageBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d byte limit", ErrImageTooLarge, len(image), s.maxImageBytes)
	}

	mimeType := http.DetectContentType(image)
	if mimeType != "image/jpeg" && mimeType != "image/png" {
		return nil, fmt.Errorf("%w: unsupported image type %s (want image/jpeg or image/png)", ErrInvalidInput, mimeType)
	}

	a, err := s.generate(ctx, imagePrompt(), image, mimeType, domain.SourceImage)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, a)
	return a, nil
}

// AssessWatchpoint re-runs a coordinate analysis for a monitored location.
// Always bypasses the cache; the point of a re-assessment is fresh output.
func (s *AssessmentService) AssessWatchpoint(ctx context.Context, wp *domain.Watchpoint) (*domain.Assessment, error) {
	if err := wp.Location.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	a, err := s.generate(ctx, coordinatePrompt(wp.Location.Lat, wp.Location.Lon), nil, "", domain.SourceWatchpoint)
	if err != nil {
		return nil, err
	}
	loc := wp.Location
	a.Location = &loc

	s.publish(ctx, a)
	return a, nil
}

// generate calls the model, normalizes the output, and retries exactly once
// with a stricter instruction when the output cannot be parsed. Transport
// errors are not retried here; the caller gets them immediately.
func (s *AssessmentService) generate(ctx context.Context, prompt string, image []byte, mimeType string, src domain.Source) (*domain.Assessment, error) {
	raw, err := s.callModel(ctx, prompt, image, mimeType)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues(string(src)).Inc()
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	a, normErr := NormalizeModelOutput(raw)
	if normErr != nil {
		slog.Warn("unparseable model output, retrying with strict instruction",
			"source", src, "error", normErr)
		metrics.UpstreamRetries.WithLabelValues(string(src)).Inc()

		raw, err = s.callModel(ctx, prompt+strictJSONInstruction, image, mimeType)
		if err != nil {
			metrics.UpstreamErrors.WithLabelValues(string(src)).Inc()
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		a, normErr = NormalizeModelOutput(raw)
		if normErr != nil {
			metrics.UpstreamErrors.WithLabelValues(string(src)).Inc()
			return nil, fmt.Errorf("%w: %v", ErrUpstream, normErr)
		}
	}

	a.ID = uuid.NewString()
	a.Source = src
	a.Model = s.model.ModelName()
	a.CreatedAt = time.Now().UTC()

	metrics.AssessmentsTotal.WithLabelValues(string(src), string(a.RiskLevel)).Inc()
	return a, nil
}

func (s *AssessmentService) callModel(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	start := time.Now()
	var (
		raw string
		err error
	)
	if image != nil {
		raw, err = s.model.GenerateFromImage(ctx, prompt, image, mimeType)
	} else {
		raw, err = s.model.GenerateText(ctx, prompt)
	}
	metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
	return raw, err
}

// publish fans the completed assessment out to the event bus. Publishing is
// best effort; a broker outage must not fail the request.
func (s *AssessmentService) publish(ctx context.Context, a *domain.Assessment) {
	if s.publisher == nil {
		return
	}
	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := s.publisher.PublishAssessment(ctx, data, string(a.Source)); err != nil {
		slog.Warn("publish assessment failed", "id", a.ID, "error", err)
	}
	_ = s.publisher.PublishBroadcast(ctx, data)
}

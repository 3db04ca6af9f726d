package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ibaizabal/floodwatch/internal/core/domain"
	"github.com/ibaizabal/floodwatch/internal/core/ports"
	"github.com/ibaizabal/floodwatch/internal/pkg/geospatial"
)

// ErrDuplicateWatchpoint is returned when a new watchpoint lands within
// duplicateRadiusMeters of an existing one.
var ErrDuplicateWatchpoint = errors.New("watchpoint already exists near this location")

const duplicateRadiusMeters = 100

// WatchpointService manages monitored locations and their re-assessment.
type WatchpointService struct {
	watchpoints ports.WatchpointRepository
	assessor    *AssessmentService
}

// NewWatchpointService creates a new WatchpointService.
func NewWatchpointService(watchpoints ports.WatchpointRepository, assessor *AssessmentService) *WatchpointService {
	return &WatchpointService{watchpoints: watchpoints, assessor: assessor}
}

// Create registers a new watchpoint after validating coordinates and
// rejecting near-duplicates.
func (s *WatchpointService) Create(ctx context.Context, name string, point domain.GeoPoint) (*domain.Watchpoint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(name) > 120 {
		return nil, fmt.Errorf("%w: name too long (max 120 characters)", ErrInvalidInput)
	}
	if err := point.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	existing, err := s.watchpoints.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, wp := range existing {
		d := geospatial.Haversine(point.Lat, point.Lon, wp.Location.Lat, wp.Location.Lon)
		if d < duplicateRadiusMeters {
			return nil, fmt.Errorf("%w: %q is %.0fm away", ErrDuplicateWatchpoint, wp.Name, d)
		}
	}

	wp := &domain.Watchpoint{
		ID:        uuid.NewString(),
		Name:      name,
		Location:  point,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.watchpoints.Create(ctx, wp); err != nil {
		return nil, err
	}
	return wp, nil
}

// List returns all watchpoints.
func (s *WatchpointService) List(ctx context.Context) ([]domain.Watchpoint, error) {
	return s.watchpoints.List(ctx)
}

// Delete removes a watchpoint.
func (s *WatchpointService) Delete(ctx context.Context, id string) error {
	return s.watchpoints.Delete(ctx, id)
}

// Reassess runs a fresh analysis for one watchpoint and records the outcome.
// Used by the periodic re-assessment worker.
func (s *WatchpointService) Reassess(ctx context.Context, id string) (*domain.Assessment, error) {
	wp, err := s.watchpoints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a, err := s.assessor.AssessWatchpoint(ctx, wp)
	if err != nil {
		return nil, err
	}

	if err := s.watchpoints.RecordAssessment(ctx, wp.ID, a.RiskLevel); err != nil {
		return nil, fmt.Errorf("record assessment for %s: %w", wp.ID, err)
	}
	return a, nil
}

package usecases

import (
	"context"

	"github.com/ibaizabal/floodwatch/internal/core/domain"
	"github.com/ibaizabal/floodwatch/internal/core/ports"
)

// HistoryService serves archived assessments.
type HistoryService struct {
	assessments ports.AssessmentRepository
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(assessments ports.AssessmentRepository) *HistoryService {
	return &HistoryService{assessments: assessments}
}

// ListRecent returns archived assessments, newest first, plus the total count.
func (s *HistoryService) ListRecent(ctx context.Context, limit, offset int) ([]domain.Assessment, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.assessments.ListRecent(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.assessments.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetByID returns a single archived assessment.
func (s *HistoryService) GetByID(ctx context.Context, id string) (*domain.Assessment, error) {
	return s.assessments.GetByID(ctx, id)
}

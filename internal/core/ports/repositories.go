package ports

import (
	"context"

	"github.com/ibaizabal/floodwatch/internal/core/domain"
)

// AssessmentRepository persists completed assessments.
type AssessmentRepository interface {
	Insert(ctx context.Context, a *domain.Assessment) error
	GetByID(ctx context.Context, id string) (*domain.Assessment, error)
	ListRecent(ctx context.Context, limit, offset int) ([]domain.Assessment, error)
	Count(ctx context.Context) (int, error)
}

// WatchpointRepository persists monitored locations.
type WatchpointRepository interface {
	Create(ctx context.Context, wp *domain.Watchpoint) error
	GetByID(ctx context.Context, id string) (*domain.Watchpoint, error)
	List(ctx context.Context) ([]domain.Watchpoint, error)
	Delete(ctx context.Context, id string) error
	// RecordAssessment updates last_risk_level / last_assessed_at after a run.
	RecordAssessment(ctx context.Context, id string, level domain.RiskLevel) error
}

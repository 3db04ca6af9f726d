package postgres

import (
	"context"

	"github.com/ibaizabal/floodwatch/internal/core/domain"
)

// AssessmentRepo implements ports.AssessmentRepository.
type AssessmentRepo struct {
	db *DB
}

func NewAssessmentRepo(db *DB) *AssessmentRepo {
	return &AssessmentRepo{db: db}
}

func (r *AssessmentRepo) Insert(ctx context.Context, a *domain.Assessment) error {
	var lat, lon *float64
	if a.Location != nil {
		lat, lon = &a.Location.Lat, &a.Location.Lon
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO assessments
			(id, source, risk_level, factors, recommendations, historical_context,
			 elevation, distance_from_water, analysis, lat, lon, model, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`, a.ID, a.Source, a.RiskLevel, a.Factors, a.Recommendations, a.HistoricalContext,
		a.Elevation, a.DistanceFromWater, a.Analysis, lat, lon, a.Model, a.CreatedAt)
	return err
}

func (r *AssessmentRepo) GetByID(ctx context.Context, id string) (*domain.Assessment, error) {
	a := &domain.Assessment{}
	var lat, lon *float64
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, source, risk_level, factors, recommendations,
		       COALESCE(historical_context, ''), elevation, distance_from_water,
		       COALESCE(analysis, ''), lat, lon, COALESCE(model, ''), created_at
		FROM assessments WHERE id = $1
	`, id).Scan(&a.ID, &a.Source, &a.RiskLevel, &a.Factors, &a.Recommendations,
		&a.HistoricalContext, &a.Elevation, &a.DistanceFromWater,
		&a.Analysis, &lat, &lon, &a.Model, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lat != nil && lon != nil {
		a.Location = &domain.GeoPoint{Lat: *lat, Lon: *lon}
	}
	return a, nil
}

func (r *AssessmentRepo) ListRecent(ctx context.Context, limit, offset int) ([]domain.Assessment, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, source, risk_level, factors, recommendations,
		       COALESCE(historical_context, ''), elevation, distance_from_water,
		       COALESCE(analysis, ''), lat, lon, COALESCE(model, ''), created_at
		FROM assessments
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Assessment
	for rows.Next() {
		var a domain.Assessment
		var lat, lon *float64
		if err := rows.Scan(&a.ID, &a.Source, &a.RiskLevel, &a.Factors, &a.Recommendations,
			&a.HistoricalContext, &a.Elevation, &a.DistanceFromWater,
			&a.Analysis, &lat, &lon, &a.Model, &a.CreatedAt); err != nil {
			return nil, err
		}
		if lat != nil && lon != nil {
			a.Location = &domain.GeoPoint{Lat: *lat, Lon: *lon}
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *AssessmentRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM assessments`).Scan(&n)
	return n, err
}

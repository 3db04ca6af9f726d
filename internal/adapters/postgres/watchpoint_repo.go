package postgres

import (
	"context"
	"fmt"

	"github.com/ibaizabal/floodwatch/internal/core/domain"
)

// WatchpointRepo implements ports.WatchpointRepository.
type WatchpointRepo struct {
	db *DB
}

func NewWatchpointRepo(db *DB) *WatchpointRepo {
	return &WatchpointRepo{db: db}
}

func (r *WatchpointRepo) Create(ctx context.Context, wp *domain.Watchpoint) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO watchpoints (id, name, lat, lon, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, wp.ID, wp.Name, wp.Location.Lat, wp.Location.Lon, wp.CreatedAt)
	return err
}

func (r *WatchpointRepo) GetByID(ctx context.Context, id string) (*domain.Watchpoint, error) {
	wp := &domain.Watchpoint{}
	var level *string
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, lat, lon, last_risk_level, last_assessed_at, created_at
		FROM watchpoints WHERE id = $1
	`, id).Scan(&wp.ID, &wp.Name, &wp.Location.Lat, &wp.Location.Lon,
		&level, &wp.LastAssessedAt, &wp.CreatedAt)
	if err != nil {
		return nil, err
	}
	if level != nil {
		wp.LastRiskLevel = domain.RiskLevel(*level)
	}
	return wp, nil
}

func (r *WatchpointRepo) List(ctx context.Context) ([]domain.Watchpoint, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, lat, lon, last_risk_level, last_assessed_at, created_at
		FROM watchpoints ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Watchpoint
	for rows.Next() {
		var wp domain.Watchpoint
		var level *string
		if err := rows.Scan(&wp.ID, &wp.Name, &wp.Location.Lat, &wp.Location.Lon,
			&level, &wp.LastAssessedAt, &wp.CreatedAt); err != nil {
			return nil, err
		}
		if level != nil {
			wp.LastRiskLevel = domain.RiskLevel(*level)
		}
		result = append(result, wp)
	}
	return result, rows.Err()
}

func (r *WatchpointRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM watchpoints WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("watchpoint %s not found", id)
	}
	return nil
}

func (r *WatchpointRepo) RecordAssessment(ctx context.Context, id string, level domain.RiskLevel) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE watchpoints SET last_risk_level = $2, last_assessed_at = now()
		WHERE id = $1
	`, id, level)
	return err
}

package workflows

import (
	"context"
	"fmt"

	"github.com/ibaizabal/floodwatch/internal/core/usecases"
)

// ReassessActivities holds the activity implementations for the re-assessment workflow.
type ReassessActivities struct {
	Watchpoints *usecases.WatchpointService
}

// ListWatchpointIDs returns the IDs of all registered watchpoints.
func (a *ReassessActivities) ListWatchpointIDs(ctx context.Context) ([]string, error) {
	wps, err := a.Watchpoints.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list watchpoints: %w", err)
	}
	ids := make([]string, 0, len(wps))
	for _, wp := range wps {
		ids = append(ids, wp.ID)
	}
	return ids, nil
}

// ReassessWatchpoint runs a fresh analysis for one watchpoint and returns the
// resulting risk level. The service records the outcome on the watchpoint row.
func (a *ReassessActivities) ReassessWatchpoint(ctx context.Context, id string) (string, error) {
	assessment, err := a.Watchpoints.Reassess(ctx, id)
	if err != nil {
		return "", fmt.Errorf("reassess %s: %w", id, err)
	}
	return string(assessment.RiskLevel), nil
}

package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// ReassessWorkflow re-runs the flood analysis for every registered watchpoint.
// Started on a cron schedule; one failed watchpoint must not block the rest,
// so per-watchpoint failures are logged and skipped.
func ReassessWorkflow(ctx workflow.Context) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting watchpoint re-assessment sweep")

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var ids []string
	if err := workflow.ExecuteActivity(ctx, "ListWatchpointIDs").Get(ctx, &ids); err != nil {
		return err
	}
	if len(ids) == 0 {
		logger.Info("No watchpoints registered, nothing to do")
		return nil
	}

	var failed int
	for _, id := range ids {
		var level string
		if err := workflow.ExecuteActivity(ctx, "ReassessWatchpoint", id).Get(ctx, &level); err != nil {
			logger.Warn("re-assessment failed", "watchpoint", id, "error", err)
			failed++
			continue
		}
		logger.Info("watchpoint re-assessed", "watchpoint", id, "risk_level", level)
	}

	logger.Info("Re-assessment sweep complete", "total", len(ids), "failed", failed)
	return nil
}

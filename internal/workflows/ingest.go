package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

// IngestInput is the input for the ingest workflow.
type IngestInput struct {
	BatchID string
	Path    string
}

// IngestWorkflow stores a CSV feed and then announces the batch. A failed
// announcement does not fail the workflow; the stored rows stay and are
// picked up by the next reload.
func IngestWorkflow(ctx workflow.Context, input IngestInput) (domain.IngestEvent, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting ingest workflow", "path", input.Path, "batchID", input.BatchID)

	retry := &temporal.RetryPolicy{
		InitialInterval: 5 * time.Second,
		MaximumAttempts: 3,
	}

	ingestCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		HeartbeatTimeout:    2 * time.Minute,
		RetryPolicy:         retry,
	})

	// Step 1: Store the feed
	var event domain.IngestEvent
	if err := workflow.ExecuteActivity(ingestCtx, "IngestFile", input).Get(ctx, &event); err != nil {
		return event, err
	}

	// Step 2: Announce it
	publishCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         retry,
	})
	if err := workflow.ExecuteActivity(publishCtx, "PublishIngested", event).Get(ctx, nil); err != nil {
		logger.Warn("ingest event not published", "batchID", event.BatchID, "error", err)
	}

	logger.Info("Ingest finished", "stored", event.Stored, "skipped", event.Skipped)
	return event, nil
}

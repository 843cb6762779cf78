package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/samirrijal/crashlens/internal/adapters/csvsource"
	"github.com/samirrijal/crashlens/internal/core/domain"
	"github.com/samirrijal/crashlens/internal/core/ports"
	"github.com/samirrijal/crashlens/internal/core/usecases"
)

// heartbeatEvery is the number of rows read between activity heartbeats.
const heartbeatEvery = 5000

// IngestActivities holds the activity implementations for the ingest workflow.
type IngestActivities struct {
	Ingest *usecases.IngestService
}

// IngestFile stores every record of the CSV file at input.Path under
// input.BatchID. Upserts are keyed by collision id, so a retried attempt
// rewrites the same rows.
func (a *IngestActivities) IngestFile(ctx context.Context, input IngestInput) (domain.IngestEvent, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Ingesting file", "path", input.Path, "batchID", input.BatchID)

	reader, closer, err := csvsource.NewFile(input.Path).Open()
	if err != nil {
		return domain.IngestEvent{}, fmt.Errorf("open feed: %w", err)
	}
	defer closer.Close()

	event, err := a.Ingest.Store(ctx, input.BatchID, input.Path, &heartbeatReader{ctx: ctx, next: reader})
	if err != nil {
		return event, fmt.Errorf("store %s: %w", input.Path, err)
	}
	if n := reader.Skipped(); n > 0 {
		logger.Warn("Unparsable rows skipped", "rows", n)
	}
	return event, nil
}

// PublishIngested announces a stored batch so API instances reload.
func (a *IngestActivities) PublishIngested(ctx context.Context, event domain.IngestEvent) error {
	return a.Ingest.Publish(ctx, event)
}

// heartbeatReader reports progress to Temporal while the feed is read.
type heartbeatReader struct {
	ctx  context.Context
	next ports.RecordReader
	rows int
}

func (r *heartbeatReader) Next() (domain.Record, error) {
	rec, err := r.next.Next()
	if err == nil {
		r.rows++
		if r.rows%heartbeatEvery == 0 {
			activity.RecordHeartbeat(r.ctx, r.rows)
		}
	}
	return rec, err
}

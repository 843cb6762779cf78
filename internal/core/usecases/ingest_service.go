package usecases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/crashlens/internal/core/domain"
	"github.com/samirrijal/crashlens/internal/core/ports"
	"github.com/samirrijal/crashlens/internal/pkg/logging"
	"github.com/samirrijal/crashlens/internal/pkg/metrics"
	"github.com/samirrijal/crashlens/internal/pkg/telemetry"
)

// DefaultIngestBatch is the number of records written per upsert.
const DefaultIngestBatch = 1000

// IngestService copies crash records from a feed into the repository.
type IngestService struct {
	repo      ports.CrashRepository
	publisher ports.EventPublisher
	batchSize int
}

// NewIngestService creates an IngestService. publisher may be nil.
func NewIngestService(repo ports.CrashRepository, publisher ports.EventPublisher, batchSize int) *IngestService {
	if batchSize <= 0 {
		batchSize = DefaultIngestBatch
	}
	return &IngestService{repo: repo, publisher: publisher, batchSize: batchSize}
}

// Store reads every record from r and upserts them in batches. Records
// without a collision id are skipped. A batch ID is generated when
// batchID is empty.
func (s *IngestService) Store(ctx context.Context, batchID, source string, r ports.RecordReader) (domain.IngestEvent, error) {
	if batchID == "" {
		batchID = uuid.NewString()
	}
	ctx, span := telemetry.StartSpan(ctx, "IngestService.Store", telemetry.AttrBatchID.String(batchID))
	defer span.End()

	log := logging.FromContext(ctx).With("batch_id", batchID, "source", source)
	event := domain.IngestEvent{BatchID: batchID, Source: source}
	batch := make([]domain.Record, 0, s.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.repo.UpsertBatch(ctx, batchID, batch)
		if err != nil {
			metrics.RecordsIngested.WithLabelValues("error").Add(float64(len(batch)))
			return fmt.Errorf("upsert batch: %w", err)
		}
		event.Stored += n
		metrics.RecordsIngested.WithLabelValues("stored").Add(float64(n))
		log.Debug("batch stored", "records", n, "total", event.Stored)
		batch = make([]domain.Record, 0, s.batchSize)
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return event, err
		}
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			span.RecordError(err)
			return event, fmt.Errorf("read record %d: %w", event.Rows+1, err)
		}
		event.Rows++

		if rec.String(domain.ColCollisionID) == "" {
			event.Skipped++
			metrics.RecordsIngested.WithLabelValues("skipped").Inc()
			continue
		}
		domain.DeriveDateParts(rec)
		batch = append(batch, rec)

		if len(batch) >= s.batchSize {
			if err := flush(); err != nil {
				span.RecordError(err)
				return event, err
			}
		}
	}
	if err := flush(); err != nil {
		span.RecordError(err)
		return event, err
	}

	event.Finished = time.Now().UTC()
	if err := s.repo.RecordBatch(ctx, event); err != nil {
		log.Warn("ingest batch not recorded", "error", err)
	}
	span.SetAttributes(telemetry.AttrRecords.Int(event.Stored))
	log.Info("ingest finished", "rows", event.Rows, "stored", event.Stored, "skipped", event.Skipped)
	return event, nil
}

// Publish announces a finished ingest. Without a publisher it is a no-op.
func (s *IngestService) Publish(ctx context.Context, event domain.IngestEvent) error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishIngested(ctx, event); err != nil {
		return fmt.Errorf("publish ingested: %w", err)
	}
	return nil
}

// Ingest stores a feed and then publishes the result. A failed publish is
// logged; the stored data stays.
func (s *IngestService) Ingest(ctx context.Context, source string, r ports.RecordReader) (domain.IngestEvent, error) {
	event, err := s.Store(ctx, "", source, r)
	if err != nil {
		return event, err
	}
	if err := s.Publish(ctx, event); err != nil {
		logging.FromContext(ctx).Warn("ingest event not published", "batch_id", event.BatchID, "error", err)
	}
	return event, nil
}

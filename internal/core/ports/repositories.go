package ports

import (
	"context"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

// CrashSource loads the crash dataset into memory.
type CrashSource interface {
	// LoadAll returns up to limit records; limit <= 0 means no limit.
	LoadAll(ctx context.Context, limit int) ([]domain.Record, error)
}

// CrashRepository persists crash records keyed by collision id.
type CrashRepository interface {
	CrashSource
	UpsertBatch(ctx context.Context, batchID string, records []domain.Record) (int, error)
	RecordBatch(ctx context.Context, event domain.IngestEvent) error
	Count(ctx context.Context) (int64, error)
}

// RecordReader streams records from a feed. Next returns io.EOF after the
// last record.
type RecordReader interface {
	Next() (domain.Record, error)
}

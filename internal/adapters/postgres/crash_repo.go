package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

// CrashRepo implements ports.CrashRepository with pgx. Each crash is one
// JSONB document keyed by collision id.
type CrashRepo struct {
	db *DB
}

// NewCrashRepo creates a new CrashRepo.
func NewCrashRepo(db *DB) *CrashRepo {
	return &CrashRepo{db: db}
}

const upsertCrash = `
	INSERT INTO crashes (collision_id, record, crash_at, batch_id)
	VALUES ($1, $2::jsonb, $3, $4)
	ON CONFLICT (collision_id) DO UPDATE
	SET record = EXCLUDED.record, crash_at = EXCLUDED.crash_at,
	    batch_id = EXCLUDED.batch_id, ingested_at = now()
`

// UpsertBatch writes records using pgx.Batch. Records without a collision
// id are not written; the count of written rows is returned.
func (r *CrashRepo) UpsertBatch(ctx context.Context, batchID string, records []domain.Record) (int, error) {
	batch := &pgx.Batch{}
	for _, rec := range records {
		id := rec.String(domain.ColCollisionID)
		if id == "" {
			continue
		}
		doc, err := json.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("encode collision %s: %w", id, err)
		}
		var crashAt any
		if t, ok := rec.CrashTime(); ok {
			crashAt = t
		}
		batch.Queue(upsertCrash, id, string(doc), crashAt, batchID)
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("batch item %d: %w", i, err)
		}
	}
	return batch.Len(), nil
}

// LoadAll returns up to limit records ordered by crash time.
func (r *CrashRepo) LoadAll(ctx context.Context, limit int) ([]domain.Record, error) {
	query := `SELECT record FROM crashes ORDER BY crash_at NULLS LAST, collision_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query crashes: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan crash: %w", err)
		}
		var rec domain.Record
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, fmt.Errorf("decode crash: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RecordBatch stores the outcome of one ingest run.
func (r *CrashRepo) RecordBatch(ctx context.Context, e domain.IngestEvent) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO ingest_batches (batch_id, source, rows_read, rows_stored, rows_skipped, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (batch_id) DO UPDATE
		SET rows_read = EXCLUDED.rows_read, rows_stored = EXCLUDED.rows_stored,
		    rows_skipped = EXCLUDED.rows_skipped, finished_at = EXCLUDED.finished_at
	`, e.BatchID, e.Source, e.Rows, e.Stored, e.Skipped, e.Finished)
	return err
}

// Count returns the number of stored crashes.
func (r *CrashRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM crashes`).Scan(&n)
	return n, err
}

package usecases_test

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

// --- Mock CrashSource / CrashRepository ---

type mockCrashRepo struct {
	loadAllFn     func(ctx context.Context, limit int) ([]domain.Record, error)
	upsertBatchFn func(ctx context.Context, batchID string, records []domain.Record) (int, error)
	recorded      []domain.IngestEvent
}

func (m *mockCrashRepo) LoadAll(ctx context.Context, limit int) ([]domain.Record, error) {
	if m.loadAllFn != nil {
		return m.loadAllFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockCrashRepo) UpsertBatch(ctx context.Context, batchID string, records []domain.Record) (int, error) {
	if m.upsertBatchFn != nil {
		return m.upsertBatchFn(ctx, batchID, records)
	}
	return len(records), nil
}

func (m *mockCrashRepo) RecordBatch(ctx context.Context, event domain.IngestEvent) error {
	m.recorded = append(m.recorded, event)
	return nil
}

func (m *mockCrashRepo) Count(ctx context.Context) (int64, error) { return 0, nil }

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	sets int
}

func newMockCache() *mockCache { return &mockCache{data: make(map[string][]byte)} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("miss")
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	publishFn func(ctx context.Context, event domain.IngestEvent) error
}

func (m *mockPublisher) PublishIngested(ctx context.Context, event domain.IngestEvent) error {
	if m.publishFn != nil {
		return m.publishFn(ctx, event)
	}
	return nil
}

func (m *mockPublisher) PublishBroadcast(ctx context.Context, data []byte) error { return nil }

// --- Slice-backed RecordReader ---

type sliceReader struct {
	records []domain.Record
	err     error
	pos     int
}

func (r *sliceReader) Next() (domain.Record, error) {
	if r.pos >= len(r.records) {
		if r.err != nil {
			return nil, r.err
		}
		return nil, io.EOF
	}
	rec := r.records[r.pos]
	r.pos++
	return rec, nil
}

func crashRecords() []domain.Record {
	return []domain.Record{
		{
			"collision_id": "1", "borough": "Brooklyn", "crash_datetime": "2021-03-01 10:00:00",
			"latitude": 40.68, "longitude": -73.97, "vehicle_type_code_1": "Sedan",
			"number_of_persons_injured": 1, "number_of_persons_killed": 0,
			"contributing_factor_vehicle_1": "Unsafe Speed",
		},
		{
			"collision_id": "2", "borough": "Queens", "crash_datetime": "2022-05-01 12:00:00",
			"latitude": 40.72, "longitude": -73.80, "vehicle_type_code_1": "Taxi",
			"number_of_persons_injured": 0, "number_of_persons_killed": 0,
		},
		{
			"collision_id": "3", "borough": "Brooklyn", "crash_datetime": "2022-05-09 08:00:00",
			"location": "POINT (-73.95 40.65)", "vehicle_type_code_1": "Bus",
			"number_of_persons_injured": 0, "number_of_persons_killed": 1,
		},
	}
}

package usecases

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/crashlens/internal/core/domain"
	"github.com/samirrijal/crashlens/internal/core/filter"
	"github.com/samirrijal/crashlens/internal/core/ports"
	"github.com/samirrijal/crashlens/internal/pkg/metrics"
	"github.com/samirrijal/crashlens/internal/pkg/telemetry"
)

// ErrDatasetNotLoaded is returned by queries issued before the first
// successful load.
var ErrDatasetNotLoaded = errors.New("dataset not loaded")

// QueryResult is one filtered view of a dataset version.
type QueryResult struct {
	Version uint64
	// Filters are the effective filters after merging the parsed search.
	Filters domain.Filters
	Records []domain.Record
}

// DatasetService owns the in-memory crash dataset. Loaded records are
// never mutated; a reload swaps in a new slice and bumps the version.
type DatasetService struct {
	source   ports.CrashSource
	cache    ports.CacheService
	maxRows  int
	cacheTTL int

	mu       sync.RWMutex
	records  []domain.Record
	options  domain.FilterOptions
	version  uint64
	// snapshotID identifies the loaded content across processes; the
	// version counter is local to this one.
	snapshotID string
	loadedAt   time.Time
}

// NewDatasetService creates a DatasetService. cache may be nil.
func NewDatasetService(source ports.CrashSource, cache ports.CacheService, maxRows, cacheTTLSeconds int) *DatasetService {
	if cacheTTLSeconds <= 0 {
		cacheTTLSeconds = 300
	}
	return &DatasetService{source: source, cache: cache, maxRows: maxRows, cacheTTL: cacheTTLSeconds}
}

// Reload reads the dataset from the source and replaces the loaded one.
func (s *DatasetService) Reload(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "DatasetService.Reload")
	defer span.End()

	records, err := s.source.LoadAll(ctx, s.maxRows)
	if err != nil {
		metrics.DatasetReloads.WithLabelValues("error").Inc()
		span.RecordError(err)
		return fmt.Errorf("load dataset: %w", err)
	}
	for _, r := range records {
		if !r.Has(domain.ColYear) {
			domain.DeriveDateParts(r)
		}
	}
	opts := filter.Options(records)
	snapshotID := fingerprint(records)

	s.mu.Lock()
	s.records = records
	s.options = opts
	s.snapshotID = snapshotID
	s.version++
	s.loadedAt = time.Now()
	version := s.version
	s.mu.Unlock()

	metrics.DatasetReloads.WithLabelValues("ok").Inc()
	metrics.DatasetRecords.Set(float64(len(records)))
	span.SetAttributes(telemetry.AttrRecords.Int(len(records)), telemetry.AttrDatasetVersion.Int64(int64(version)))
	slog.Info("dataset loaded", "records", len(records), "version", version)
	return nil
}

// Loaded reports whether a dataset is available.
func (s *DatasetService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version > 0
}

// Status returns the loaded version, its size and when it was loaded.
func (s *DatasetService) Status() (version uint64, records int, loadedAt time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version, len(s.records), s.loadedAt
}

func (s *DatasetService) snapshot() ([]domain.Record, uint64, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.version == 0 {
		return nil, 0, "", ErrDatasetNotLoaded
	}
	return s.records, s.version, s.snapshotID, nil
}

// fingerprint hashes the ordered rows so that processes holding the same
// dataset share cached row positions and different datasets never do.
func fingerprint(records []domain.Record) string {
	d := xxhash.New()
	var n [8]byte
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return uuid.NewString()
		}
		binary.LittleEndian.PutUint64(n[:], uint64(len(data)))
		_, _ = d.Write(n[:])
		_, _ = d.Write(data)
	}
	return strconv.Itoa(len(records)) + "-" + strconv.FormatUint(d.Sum64(), 16)
}

// Options returns the dropdown choices of the loaded dataset.
func (s *DatasetService) Options(ctx context.Context) (domain.FilterOptions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.version == 0 {
		return domain.FilterOptions{}, ErrDatasetNotLoaded
	}
	return s.options, nil
}

// Query merges the search text into the filters and applies them. Matching
// row positions are cached per loaded snapshot.
func (s *DatasetService) Query(ctx context.Context, f domain.Filters) (QueryResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "DatasetService.Query")
	defer span.End()

	records, version, snapshotID, err := s.snapshot()
	if err != nil {
		return QueryResult{}, err
	}
	merged := filter.MergeSearch(f)
	res := QueryResult{Version: version, Filters: merged}

	start := time.Now()
	defer func() {
		metrics.QueryDuration.WithLabelValues("query").Observe(time.Since(start).Seconds())
		span.SetAttributes(telemetry.AttrRecords.Int(len(res.Records)), telemetry.AttrDatasetVersion.Int64(int64(version)))
	}()

	if !merged.HasStructured() && merged.Search == "" {
		res.Records = records
		return res, nil
	}

	key := queryCacheKey(snapshotID, merged)
	if rows, ok := s.cachedRows(ctx, key, len(records)); ok {
		span.SetAttributes(telemetry.AttrCacheHit.Bool(true))
		res.Records = pick(records, rows)
		return res, nil
	}

	rows := filter.Indices(records, merged)
	res.Records = pick(records, rows)
	s.storeRows(ctx, key, rows)
	return res, nil
}

// Page returns one window of a filtered query and the total match count.
func (s *DatasetService) Page(ctx context.Context, f domain.Filters, offset, limit int) ([]domain.Record, int, error) {
	res, err := s.Query(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total := len(res.Records)
	if offset >= total {
		return []domain.Record{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return res.Records[offset:end], total, nil
}

func pick(records []domain.Record, rows []int) []domain.Record {
	out := make([]domain.Record, len(rows))
	for i, idx := range rows {
		out[i] = records[idx]
	}
	return out
}

func queryCacheKey(snapshotID string, f domain.Filters) string {
	return "crashes:query:" + snapshotID + ":" +
		strconv.FormatUint(xxhash.Sum64String(f.CacheKey()), 16)
}

func (s *DatasetService) cachedRows(ctx context.Context, key string, n int) ([]int, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheMisses.WithLabelValues("query").Inc()
		return nil, false
	}
	var rows []int
	if err := json.Unmarshal(data, &rows); err != nil {
		metrics.CacheMisses.WithLabelValues("query").Inc()
		return nil, false
	}
	for _, idx := range rows {
		if idx < 0 || idx >= n {
			return nil, false
		}
	}
	metrics.CacheHits.WithLabelValues("query").Inc()
	return rows, true
}

func (s *DatasetService) storeRows(ctx context.Context, key string, rows []int) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		slog.Debug("query cache store failed", "key", key, "error", err)
	}
}

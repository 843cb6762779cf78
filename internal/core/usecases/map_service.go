package usecases

import (
	"context"
	"sync"

	"github.com/samirrijal/crashlens/internal/core/domain"
	"github.com/samirrijal/crashlens/internal/core/geo"
	"github.com/samirrijal/crashlens/internal/pkg/logging"
	"github.com/samirrijal/crashlens/internal/pkg/metrics"
	"github.com/samirrijal/crashlens/internal/pkg/telemetry"
)

const maxMemoEntries = 64

type mapMemoKey struct {
	version   uint64
	filters   string
	maxPoints int
}

// MapService builds map views over filtered queries. Views are memoised
// per dataset version, filters and point cap since resolution is pure.
type MapService struct {
	dataset        *DatasetService
	opts           geo.Options
	labelThreshold int

	mu   sync.Mutex
	memo map[mapMemoKey]domain.MapView
}

// NewMapService creates a MapService with the given resolver defaults.
func NewMapService(dataset *DatasetService, opts geo.Options, labelThreshold int) *MapService {
	return &MapService{
		dataset:        dataset,
		opts:           opts,
		labelThreshold: labelThreshold,
		memo:           make(map[mapMemoKey]domain.MapView),
	}
}

// View resolves the filtered records into a map view. maxPoints <= 0 uses
// the configured cap.
func (s *MapService) View(ctx context.Context, f domain.Filters, maxPoints int) (domain.MapView, error) {
	ctx, span := telemetry.StartSpan(ctx, "MapService.View")
	defer span.End()

	res, err := s.dataset.Query(ctx, f)
	if err != nil {
		return domain.MapView{}, err
	}

	opts := s.opts
	if maxPoints > 0 {
		opts.MaxPoints = maxPoints
	}
	key := mapMemoKey{version: res.Version, filters: res.Filters.CacheKey(), maxPoints: opts.MaxPoints}

	s.mu.Lock()
	view, ok := s.memo[key]
	s.mu.Unlock()
	if ok {
		span.SetAttributes(telemetry.AttrCacheHit.Bool(true))
		metrics.CacheHits.WithLabelValues("map").Inc()
		return view, nil
	}
	metrics.CacheMisses.WithLabelValues("map").Inc()

	view, resolution := geo.BuildMapView(res.Records, opts, s.labelThreshold)
	observeResolution(resolution)
	span.SetAttributes(
		telemetry.AttrRecords.Int(resolution.TotalInput),
		telemetry.AttrPoints.Int(len(resolution.Points)),
		telemetry.AttrMaxPoints.Int(opts.MaxPoints),
	)
	logging.FromContext(ctx).Debug("map resolved",
		"input", resolution.TotalInput,
		"valid", resolution.TotalValid,
		"unresolved", resolution.Unresolved,
		"out_of_bounds", resolution.OutOfBounds,
		"duplicates", resolution.Duplicates,
		"points", len(resolution.Points),
	)

	s.mu.Lock()
	for k := range s.memo {
		if k.version != key.version || len(s.memo) >= maxMemoEntries {
			delete(s.memo, k)
		}
	}
	s.memo[key] = view
	s.mu.Unlock()

	return view, nil
}

// Nearby returns deduplicated crash points within radiusMeters of lat/lon,
// closest first. No sampling is applied before the radius search.
func (s *MapService) Nearby(ctx context.Context, f domain.Filters, lat, lon, radiusMeters float64, limit int) ([]domain.NearbyPoint, error) {
	ctx, span := telemetry.StartSpan(ctx, "MapService.Nearby")
	defer span.End()

	if radiusMeters <= 0 || radiusMeters > 5000 {
		radiusMeters = 500
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	res, err := s.dataset.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	resolution := geo.Resolve(res.Records, s.opts)
	points := geo.Nearby(resolution.Deduped, lat, lon, radiusMeters, limit)
	span.SetAttributes(telemetry.AttrPoints.Int(len(points)))
	return points, nil
}

func observeResolution(r geo.Resolution) {
	metrics.RecordsResolved.WithLabelValues("valid").Add(float64(r.TotalValid))
	metrics.RecordsResolved.WithLabelValues("unresolved").Add(float64(r.Unresolved))
	metrics.RecordsResolved.WithLabelValues("out_of_bounds").Add(float64(r.OutOfBounds))
	metrics.RecordsResolved.WithLabelValues("duplicate").Add(float64(r.Duplicates))
	metrics.MapPoints.Observe(float64(len(r.Points)))
}

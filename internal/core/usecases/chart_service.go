package usecases

import (
	"context"

	"github.com/samirrijal/crashlens/internal/core/aggregate"
	"github.com/samirrijal/crashlens/internal/core/domain"
	"github.com/samirrijal/crashlens/internal/pkg/telemetry"
)

// Chart names accepted by Chart.
const (
	ChartBorough  = "borough"
	ChartFactors  = "factors"
	ChartVehicles = "vehicles"
	ChartTimeline = "timeline"
	ChartHeatmap  = "heatmap"
	ChartSummary  = "summary"
	ChartMap      = "map"
)

// ChartNames lists every chart in dashboard order.
var ChartNames = []string{ChartSummary, ChartBorough, ChartFactors, ChartVehicles, ChartTimeline, ChartHeatmap, ChartMap}

// ChartService computes chart aggregates over filtered queries.
type ChartService struct {
	dataset *DatasetService
}

// NewChartService creates a new ChartService.
func NewChartService(dataset *DatasetService) *ChartService {
	return &ChartService{dataset: dataset}
}

func (s *ChartService) query(ctx context.Context, chart string, f domain.Filters) (QueryResult, func(), error) {
	ctx, span := telemetry.StartSpan(ctx, "ChartService."+chart, telemetry.AttrChart.String(chart))
	res, err := s.dataset.Query(ctx, f)
	if err != nil {
		span.RecordError(err)
		span.End()
		return QueryResult{}, nil, err
	}
	span.SetAttributes(telemetry.AttrRecords.Int(len(res.Records)))
	return res, func() { span.End() }, nil
}

// Borough counts crashes per borough.
func (s *ChartService) Borough(ctx context.Context, f domain.Filters) ([]domain.CategoryCount, error) {
	res, done, err := s.query(ctx, ChartBorough, f)
	if err != nil {
		return nil, err
	}
	defer done()
	return aggregate.ByBorough(res.Records), nil
}

// Factors returns the most frequent contributing factors.
func (s *ChartService) Factors(ctx context.Context, f domain.Filters, n int) ([]domain.CategoryCount, error) {
	res, done, err := s.query(ctx, ChartFactors, f)
	if err != nil {
		return nil, err
	}
	defer done()
	return aggregate.TopFactors(res.Records, n), nil
}

// Vehicles returns the vehicle-type share, bucketing rows outside the
// selected vehicle types into Other.
func (s *ChartService) Vehicles(ctx context.Context, f domain.Filters) ([]domain.CategoryCount, error) {
	res, done, err := s.query(ctx, ChartVehicles, f)
	if err != nil {
		return nil, err
	}
	defer done()
	return aggregate.VehicleShare(res.Records, res.Filters.VehicleType), nil
}

// Timeline returns monthly crash, injury and fatality totals.
func (s *ChartService) Timeline(ctx context.Context, f domain.Filters) (domain.MonthlySeries, error) {
	res, done, err := s.query(ctx, ChartTimeline, f)
	if err != nil {
		return domain.MonthlySeries{}, err
	}
	defer done()
	return aggregate.Monthly(res.Records), nil
}

// Heatmap returns the borough by month matrix.
func (s *ChartService) Heatmap(ctx context.Context, f domain.Filters) (domain.Heatmap, error) {
	res, done, err := s.query(ctx, ChartHeatmap, f)
	if err != nil {
		return domain.Heatmap{}, err
	}
	defer done()
	return aggregate.Heatmap(res.Records), nil
}

// Summary returns the stat card values.
func (s *ChartService) Summary(ctx context.Context, f domain.Filters) (domain.Summary, error) {
	res, done, err := s.query(ctx, ChartSummary, f)
	if err != nil {
		return domain.Summary{}, err
	}
	defer done()
	return aggregate.Summary(res.Records), nil
}

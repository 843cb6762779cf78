package echarts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/crashlens/internal/core/aggregate"
	"github.com/samirrijal/crashlens/internal/core/domain"
	"github.com/samirrijal/crashlens/internal/core/geo"
	"github.com/samirrijal/crashlens/internal/core/usecases"
)

func sampleRecords() []domain.Record {
	return []domain.Record{
		{"collision_id": int64(1), "borough": "BROOKLYN", "crash_datetime": "2023-01-05 08:30:00", "latitude": 40.65, "longitude": -73.95,
			"number_of_persons_injured": int64(2), "number_of_persons_killed": int64(0), "vehicle_type_code_1": "Sedan",
			"contributing_factor_vehicle_1": "Driver Inattention/Distraction", "year": int64(2023), "month": int64(1)},
		{"collision_id": int64(2), "borough": "QUEENS", "crash_datetime": "2023-02-10 17:00:00", "latitude": 40.72, "longitude": -73.80,
			"number_of_persons_injured": int64(0), "number_of_persons_killed": int64(1), "vehicle_type_code_1": "Bike",
			"contributing_factor_vehicle_1": "Unsafe Speed", "year": int64(2023), "month": int64(2)},
		{"collision_id": int64(3), "borough": "MANHATTAN", "crash_datetime": "2023-02-11 12:00:00", "latitude": 40.78, "longitude": -73.97,
			"number_of_persons_injured": int64(0), "number_of_persons_killed": int64(0), "vehicle_type_code_1": "Taxi",
			"contributing_factor_vehicle_1": "Unspecified", "year": int64(2023), "month": int64(2)},
	}
}

func sampleData(t *testing.T) DashboardData {
	t.Helper()
	records := sampleRecords()
	view, _ := geo.BuildMapView(records, geo.DefaultOptions(), geo.DefaultLabelThreshold)
	return DashboardData{
		Summary:  aggregate.Summary(records),
		Borough:  aggregate.ByBorough(records),
		Factors:  aggregate.TopFactors(records, 10),
		Vehicles: aggregate.VehicleShare(records, nil),
		Timeline: aggregate.Monthly(records),
		Heatmap:  aggregate.Heatmap(records),
		Map:      view,
	}
}

func TestNewRenderer_Defaults(t *testing.T) {
	r := NewRenderer("", "")
	assert.Equal(t, DefaultAssetsHost, r.AssetsHost())
	assert.Equal(t, "dark", r.theme)

	r = NewRenderer("/assets/", "white")
	assert.Equal(t, "/assets/", r.AssetsHost())
}

func TestChart_RendersEveryName(t *testing.T) {
	r := NewRenderer("/assets/", "")
	data := sampleData(t)

	for _, name := range []string{"borough", "factors", "vehicles", "timeline", "heatmap", "map"} {
		t.Run(name, func(t *testing.T) {
			chart, err := r.Chart(name, data)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, Render(&buf, chart))
			html := buf.String()
			assert.Contains(t, html, "/assets/echarts.min.js")
			assert.Contains(t, html, "echarts.init")
		})
	}

	_, err := r.Chart("pie-in-the-sky", data)
	assert.Error(t, err)
}

func TestBorough_LabelsInOrder(t *testing.T) {
	r := NewRenderer("", "")
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r.Borough([]domain.CategoryCount{
		{Label: "BROOKLYN", Count: 10},
		{Label: "QUEENS", Count: 4},
	})))

	html := buf.String()
	assert.Contains(t, html, "Crashes by Borough")
	assert.Less(t, strings.Index(html, "BROOKLYN"), strings.Index(html, "QUEENS"))
}

func TestFactors_MostFrequentOnTop(t *testing.T) {
	r := NewRenderer("", "")
	bar := r.Factors([]domain.CategoryCount{
		{Label: "Unsafe Speed", Count: 9},
		{Label: "Driver Inattention/Distraction", Count: 3},
	})

	require.Len(t, bar.MultiSeries, 1)
	data, ok := bar.MultiSeries[0].Data.([]opts.BarData)
	require.True(t, ok)
	// Horizontal bars draw the last category at the top.
	assert.Equal(t, "Driver Inattention/Distraction", data[0].Name)
	assert.Equal(t, "Unsafe Speed", data[1].Name)
}

func TestMap_SplitsBySeverity(t *testing.T) {
	r := NewRenderer("", "")
	view := sampleData(t).Map
	require.Equal(t, 3, view.TotalPoints)

	scatter := r.Map(view)
	names := make([]string, 0, len(scatter.MultiSeries))
	total := 0
	for _, s := range scatter.MultiSeries {
		names = append(names, s.Name)
		total += len(s.Data.([]opts.ScatterData))
	}
	assert.Equal(t, []string{"Fatal", "Injury", "No injury"}, names)
	assert.Equal(t, 3, total)
}

func TestMap_SkipsEmptySeries(t *testing.T) {
	r := NewRenderer("", "")
	records := sampleRecords()[:1]
	view, _ := geo.BuildMapView(records, geo.DefaultOptions(), geo.DefaultLabelThreshold)

	scatter := r.Map(view)
	require.Len(t, scatter.MultiSeries, 1)
	assert.Equal(t, "Injury", scatter.MultiSeries[0].Name)
}

func TestDashboard(t *testing.T) {
	r := NewRenderer("/assets/", "dark")
	data := sampleData(t)

	t.Run("no filters", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.Dashboard(&buf, usecases.NewDashboardState(), data))
		html := buf.String()
		assert.Contains(t, html, "No filters applied")
		assert.Contains(t, html, "Unique Collisions")
		assert.Equal(t, 6, strings.Count(html, `class="chart`))
	})

	t.Run("active filters", func(t *testing.T) {
		state := usecases.NewDashboardState()
		state.Toggle(domain.FilterBorough, "BROOKLYN")
		state.SetSearch("bike crashes")

		var buf bytes.Buffer
		require.NoError(t, r.Dashboard(&buf, state, data))
		html := buf.String()
		assert.NotContains(t, html, "No filters applied")
		assert.Contains(t, html, "borough: BROOKLYN")
		assert.Contains(t, html, "search: bike crashes")
		assert.Contains(t, html, "borough (1)")
	})
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4500, "-4,500"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatInt(tt.in))
	}
}
